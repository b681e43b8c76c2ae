package processor

// Label is the classification assigned to a segment.
type Label string

// Segment labels
const (
	LabelVoice Label = "voice"
	LabelNoise Label = "noise"
)

// CheckState records the outcome of one scoring rule.
type CheckState int

// Rule outcomes
const (
	NotEvaluated CheckState = iota // skipped by the energy gate or a filter failure
	Passed
	Failed
)

// String returns the check state for logs and tables
func (c CheckState) String() string {
	switch c {
	case Passed:
		return "pass"
	case Failed:
		return "fail"
	default:
		return "n/a"
	}
}

// MarshalText lets CheckState serialise as its name.
func (c CheckState) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Rule weights
const (
	weightFlatness  = 2
	weightPitch     = 1
	weightVoicing   = 1
	weightVoiceBand = 2
)

// Decision is the scored outcome of ClassifySegment.
type Decision struct {
	Label      Label      `json:"label"`
	Score      int        `json:"score"`
	EnergyPass bool       `json:"energy_pass"`
	Flatness   CheckState `json:"flatness"`
	Pitch      CheckState `json:"pitch"`
	Voicing    CheckState `json:"voicing"`
	VoiceBand  CheckState `json:"voice_band"`
}

// ClassifySegment scores a (smoothed) feature vector against th.
//
// Segments whose energy is below th.EnergyFloor are noise and no other rule is
// evaluated. Otherwise flatness below the ceiling earns 2, pitch inside
// [PitchMinHz, PitchMaxHz] earns 1, voicing above the floor earns 1 and a voice
// band ratio above the floor earns 2. A score of at least th.ScoreThreshold is voice.
func ClassifySegment(fv FeatureVector, th *Thresholds) Decision {
	d := Decision{Label: LabelNoise}
	if fv.TotalEnergy < th.EnergyFloor {
		return d
	}
	d.EnergyPass = true

	d.Flatness = d.check(fv.Flatness < th.FlatnessCeiling, weightFlatness)
	d.Pitch = d.check(fv.PitchHz >= th.PitchMinHz && fv.PitchHz <= th.PitchMaxHz, weightPitch)
	d.Voicing = d.check(fv.VoicingProbability > th.VoicingFloor, weightVoicing)
	d.VoiceBand = d.check(fv.VoiceBandRatioLog > th.VoiceBandFloor, weightVoiceBand)

	if d.Score >= th.ScoreThreshold {
		d.Label = LabelVoice
	}
	return d
}

func (d *Decision) check(ok bool, weight int) CheckState {
	if !ok {
		return Failed
	}
	d.Score += weight
	return Passed
}

// filterFailedDecision is the decision for a segment the bandpass could not process.
func filterFailedDecision() Decision {
	return Decision{Label: LabelNoise}
}
