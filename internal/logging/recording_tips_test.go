package logging

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linuxmatters/voicegate/internal/processor"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		indent   string
		want     string
	}{
		{
			name:     "short_text_no_wrap",
			text:     "Hello world",
			maxWidth: 20,
			indent:   "  ",
			want:     "Hello world",
		},
		{
			name:     "long_text_wraps",
			text:     "Try moving closer to your microphone for better results",
			maxWidth: 30,
			indent:   "  ",
			want:     "Try moving closer to your\n  microphone for better results",
		},
		{
			name:     "single_long_word",
			text:     "supercalifragilisticexpialidocious",
			maxWidth: 10,
			indent:   "  ",
			want:     "supercalifragilisticexpialidocious",
		},
		{
			name:     "empty_input",
			text:     "",
			maxWidth: 20,
			indent:   "  ",
			want:     "",
		},
		{
			name:     "multiple_wraps",
			text:     "one two three four five six seven eight nine ten",
			maxWidth: 15,
			indent:   "    ",
			want:     "one two three\n    four five six\n    seven eight\n    nine ten",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.maxWidth, tt.indent)
			if got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

// seg builds a segment result with the diagnostics the tip rules read.
func seg(label processor.Label, rms, peak float64) processor.SegmentResult {
	return processor.SegmentResult{
		Label:       label,
		Diagnostics: processor.Diagnostics{RMSLevel: rms, PeakLevel: peak},
	}
}

func withHum(s processor.SegmentResult, hum float64) processor.SegmentResult {
	s.Diagnostics.HumRatio = hum
	return s
}

func withFlatness(s processor.SegmentResult, flatness float64) processor.SegmentResult {
	s.Smoothed.Flatness = flatness
	return s
}

func result(segments ...processor.SegmentResult) *processor.Result {
	for i := range segments {
		segments[i].Index = i
		segments[i].StartTime = float64(i)
		segments[i].EndTime = float64(i + 1)
	}
	return &processor.Result{SampleRate: processor.RequiredSampleRate, Duration: float64(len(segments)), Segments: segments}
}

func TestNewRecordingProfile(t *testing.T) {
	failed := seg(processor.LabelNoise, -10, -1)
	failed.FilterFailed = true

	p := NewRecordingProfile(result(
		seg(processor.LabelVoice, -20, -6),
		seg(processor.LabelVoice, -20, -3),
		withHum(seg(processor.LabelNoise, -70, -50), 0.2),
		withHum(seg(processor.LabelNoise, -60, -40), 0.4),
		withHum(seg(processor.LabelNoise, -50, -30), 0.6),
		failed,
	))

	assert.Equal(t, 2, p.VoiceSegments)
	assert.Equal(t, 3, p.NoiseSegments)
	assert.Equal(t, 1, p.FilterFailures)
	assert.InDelta(t, -20.0, p.VoiceRMS, 1e-9)
	assert.InDelta(t, 0.0, p.VoiceSpread, 1e-9)
	assert.InDelta(t, -60.0, p.NoiseFloor, 1e-9)
	assert.InDelta(t, 0.4, p.HumRatio, 1e-9)
	assert.InDelta(t, -1.0, p.PeakLevel, 1e-9, "filter-failed segments still count towards the peak")
	assert.InDelta(t, 40.0, p.SNR(), 1e-9)
}

func TestNewRecordingProfileWithoutVoice(t *testing.T) {
	p := NewRecordingProfile(result(seg(processor.LabelNoise, -70, -60)))

	assert.True(t, math.IsNaN(p.VoiceRMS))
	assert.True(t, math.IsNaN(p.SNR()))
	assert.True(t, math.IsNaN(p.Flatness))
}

func TestTipLevelTooQuiet(t *testing.T) {
	tests := []struct {
		name     string
		voiceRMS float64
		wantTip  bool
		wantGain string
	}{
		{"very quiet -43 dBFS", -43.0, true, "19 dB"},
		{"boundary -42 dBFS", -42.0, false, ""},
		{"normal -24 dBFS", -24.0, false, ""},
		{"no voice", math.NaN(), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tip := tipLevelTooQuiet(&RecordingProfile{VoiceRMS: tt.voiceRMS})
			if (tip != nil) != tt.wantTip {
				t.Fatalf("tipLevelTooQuiet() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && !strings.Contains(tip.Message, tt.wantGain) {
				t.Errorf("Message %q should contain %q", tip.Message, tt.wantGain)
			}
		})
	}
}

func TestTipLevelQuiet(t *testing.T) {
	tests := []struct {
		name     string
		voiceRMS float64
		wantTip  bool
		wantGain string
	}{
		{"very quiet handled by too_quiet", -45.0, false, ""},
		{"boundary -42 dBFS triggers quiet", -42.0, true, "18 dB"},
		{"moderately quiet -38 dBFS", -38.0, true, "14 dB"},
		{"boundary -36 dBFS no tip", -36.0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tip := tipLevelQuiet(&RecordingProfile{VoiceRMS: tt.voiceRMS})
			if (tip != nil) != tt.wantTip {
				t.Fatalf("tipLevelQuiet() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && !strings.Contains(tip.Message, tt.wantGain) {
				t.Errorf("Message %q should contain %q", tip.Message, tt.wantGain)
			}
		})
	}
}

func TestTipLevelTooHot(t *testing.T) {
	tests := []struct {
		name       string
		peak       float64
		wantRuleID string
	}{
		{"full scale", 0.0, "level_clipping"},
		{"near full scale", -0.5, "level_near_clipping"},
		{"boundary -1 dBFS", -1.0, ""},
		{"headroom", -6.0, ""},
		{"silence", math.Inf(-1), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tip := tipLevelTooHot(&RecordingProfile{PeakLevel: tt.peak})
			if tt.wantRuleID == "" {
				assert.Nil(t, tip)
				return
			}
			if assert.NotNil(t, tip) {
				assert.Equal(t, tt.wantRuleID, tip.RuleID)
			}
		})
	}
}

func TestTipBackgroundNoise(t *testing.T) {
	tests := []struct {
		name       string
		noiseFloor float64
		wantRuleID string
	}{
		{"high", -40.0, "background_noise_high"},
		{"moderate", -50.0, "background_noise_moderate"},
		{"quiet", -70.0, ""},
		{"unmeasured", math.NaN(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tip := tipBackgroundNoise(&RecordingProfile{NoiseFloor: tt.noiseFloor})
			if tt.wantRuleID == "" {
				assert.Nil(t, tip)
				return
			}
			if assert.NotNil(t, tip) {
				assert.Equal(t, tt.wantRuleID, tip.RuleID)
			}
		})
	}
}

func TestTipMainsHum(t *testing.T) {
	tests := []struct {
		name       string
		humRatio   float64
		noiseFloor float64
		wantTip    bool
	}{
		{"tonal audible noise", 0.6, -50.0, true},
		{"broadband noise", 0.05, -50.0, false},
		{"hum below audibility", 0.6, -75.0, false},
		{"not measured", 0, -50.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tip := tipMainsHum(&RecordingProfile{HumRatio: tt.humRatio, NoiseFloor: tt.noiseFloor})
			assert.Equal(t, tt.wantTip, tip != nil)
		})
	}
}

func TestTipDynamicRange(t *testing.T) {
	assert.NotNil(t, tipDynamicRange(&RecordingProfile{VoiceSegments: 3, VoiceSpread: 9}))
	assert.Nil(t, tipDynamicRange(&RecordingProfile{VoiceSegments: 2, VoiceSpread: 12}), "too few segments to judge")
	assert.Nil(t, tipDynamicRange(&RecordingProfile{VoiceSegments: 5, VoiceSpread: 4}))
}

func hasRuleID(tips []RecordingTip, id string) bool {
	for _, tip := range tips {
		if tip.RuleID == id {
			return true
		}
	}
	return false
}

func ruleIDs(tips []RecordingTip) []string {
	ids := make([]string, len(tips))
	for i, tip := range tips {
		ids[i] = tip.RuleID
	}
	return ids
}

func TestGenerateRecordingTips(t *testing.T) {
	tests := []struct {
		name             string
		result           *processor.Result
		wantRuleIDs      []string
		excludeRuleIDs   []string
		checkFirstRuleID string
		wantExact        int
		wantEmpty        bool
	}{
		{
			name: "clean recording no tips",
			result: result(
				withFlatness(seg(processor.LabelVoice, -20, -6), 0.1),
				withFlatness(seg(processor.LabelVoice, -22, -6), 0.1),
				withFlatness(seg(processor.LabelVoice, -21, -6), 0.1),
				seg(processor.LabelNoise, -70, -60),
				seg(processor.LabelNoise, -72, -60),
			),
			wantEmpty: true,
		},
		{
			name: "no voice detected",
			result: result(
				seg(processor.LabelNoise, -70, -60),
				seg(processor.LabelNoise, -72, -60),
			),
			wantRuleIDs: []string{"no_voice"},
			wantExact:   1,
		},
		{
			name: "too far from mic excludes level_quiet and poor_snr",
			result: result(
				seg(processor.LabelVoice, -38, -20),
				seg(processor.LabelVoice, -38, -20),
				seg(processor.LabelNoise, -46, -30),
			),
			wantRuleIDs:    []string{"too_far_from_mic", "background_noise_moderate"},
			excludeRuleIDs: []string{"level_quiet", "poor_snr"},
		},
		{
			name: "clipping excludes level_too_quiet",
			result: result(
				seg(processor.LabelVoice, -45, 0),
				seg(processor.LabelNoise, -80, -70),
			),
			checkFirstRuleID: "level_clipping",
			excludeRuleIDs:   []string{"level_too_quiet"},
		},
		{
			name: "all bad recording returns exactly 5",
			result: result(
				withFlatness(seg(processor.LabelVoice, -50, -0.5), 0.5),
				withFlatness(seg(processor.LabelVoice, -30, -0.5), 0.5),
				withFlatness(seg(processor.LabelVoice, -45, -0.5), 0.5),
				withHum(seg(processor.LabelNoise, -42, -20), 0.5),
			),
			wantExact: 5,
		},
		{
			name:      "empty result",
			result:    &processor.Result{},
			wantEmpty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tips := GenerateRecordingTips(tt.result)

			if tt.wantEmpty {
				if len(tips) != 0 {
					t.Errorf("expected no tips, got %d: %v", len(tips), ruleIDs(tips))
				}
				return
			}

			for _, wantID := range tt.wantRuleIDs {
				if !hasRuleID(tips, wantID) {
					t.Errorf("expected RuleID %q in tips, got %v", wantID, ruleIDs(tips))
				}
			}
			for _, excludeID := range tt.excludeRuleIDs {
				if hasRuleID(tips, excludeID) {
					t.Errorf("RuleID %q should be excluded, got %v", excludeID, ruleIDs(tips))
				}
			}
			if tt.checkFirstRuleID != "" && len(tips) > 0 && tips[0].RuleID != tt.checkFirstRuleID {
				t.Errorf("first tip RuleID = %q, want %q (tips: %v)", tips[0].RuleID, tt.checkFirstRuleID, ruleIDs(tips))
			}
			if tt.wantExact > 0 && len(tips) != tt.wantExact {
				t.Errorf("got %d tips, want exactly %d: %v", len(tips), tt.wantExact, ruleIDs(tips))
			}
			if len(tips) > MaxRecordingTips {
				t.Errorf("got %d tips, want at most %d", len(tips), MaxRecordingTips)
			}
		})
	}
}
