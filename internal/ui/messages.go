package ui

// ProgressMsg represents a progress update from the classifier
type ProgressMsg struct {
	Pass     int     // 1 to 3
	PassName string  // "Analysing", "Smoothing" or "Classifying"
	Progress float64 // 0.0 to 1.0
	Level    float64 // RMS of the segment just analysed in dBFS
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex  int
	FileName   string
	OutputPath string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex     int
	VoiceSegments int
	NoiseSegments int
	VoiceSeconds  float64
	Duration      float64
	OutputPath    string
	Error         error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}
