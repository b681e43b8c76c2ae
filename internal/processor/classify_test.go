package processor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

// voiceLike passes every rule under the default thresholds
func voiceLike() FeatureVector {
	return FeatureVector{
		TotalEnergy:        1,
		Flatness:           0.1,
		PitchHz:            180,
		VoicingProbability: 0.8,
		VoiceBandRatioLog:  -0.1,
	}
}

func TestClassifySegmentScoring(t *testing.T) {
	th := newTestThresholds()

	tests := []struct {
		name      string
		mutate    func(fv *FeatureVector)
		wantScore int
		wantLabel Label
	}{
		{"all rules pass", func(fv *FeatureVector) {}, 6, LabelVoice},
		{"flat spectrum", func(fv *FeatureVector) { fv.Flatness = 0.7 }, 4, LabelVoice},
		{"flat and wideband", func(fv *FeatureVector) { fv.Flatness = 0.7; fv.VoiceBandRatioLog = -1 }, 2, LabelNoise},
		{"unvoiced", func(fv *FeatureVector) { fv.PitchHz = UnvoicedPitch; fv.VoicingProbability = 0 }, 4, LabelVoice},
		{"pitch above range", func(fv *FeatureVector) { fv.PitchHz = 800 }, 5, LabelVoice},
		{"pitch at range edges", func(fv *FeatureVector) { fv.PitchHz = 500 }, 6, LabelVoice},
		{"flatness at ceiling fails", func(fv *FeatureVector) { fv.Flatness = 0.4 }, 4, LabelVoice},
		{"voicing at floor fails", func(fv *FeatureVector) { fv.VoicingProbability = 0.25; fv.Flatness = 0.9 }, 3, LabelNoise},
		{"voice band at floor fails", func(fv *FeatureVector) { fv.VoiceBandRatioLog = -0.35; fv.PitchHz = 0 }, 3, LabelNoise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := voiceLike()
			tt.mutate(&fv)
			d := ClassifySegment(fv, th)
			assert.True(t, d.EnergyPass)
			assert.Equal(t, tt.wantScore, d.Score)
			assert.Equal(t, tt.wantLabel, d.Label)
		})
	}
}

func TestClassifySegmentScoreAtThresholdIsVoice(t *testing.T) {
	th := newTestThresholds()
	fv := voiceLike()
	fv.Flatness = 0.9 // -2, leaves exactly 4

	d := ClassifySegment(fv, th)
	assert.Equal(t, th.ScoreThreshold, d.Score)
	assert.Equal(t, LabelVoice, d.Label)

	th.ScoreThreshold = 5
	assert.Equal(t, LabelNoise, ClassifySegment(fv, th).Label)
}

func TestClassifySegmentEnergyGate(t *testing.T) {
	th := newTestThresholds()
	fv := voiceLike()
	fv.TotalEnergy = th.EnergyFloor * 0.99

	d := ClassifySegment(fv, th)
	assert.Equal(t, LabelNoise, d.Label)
	assert.False(t, d.EnergyPass)
	assert.Equal(t, 0, d.Score)
	for _, c := range []CheckState{d.Flatness, d.Pitch, d.Voicing, d.VoiceBand} {
		assert.Equal(t, NotEvaluated, c)
	}

	// The floor itself passes the gate
	fv.TotalEnergy = th.EnergyFloor
	assert.True(t, ClassifySegment(fv, th).EnergyPass)
}

func TestClassifySegmentCheckStates(t *testing.T) {
	th := newTestThresholds()
	fv := voiceLike()
	fv.PitchHz = 40
	fv.VoiceBandRatioLog = -2

	d := ClassifySegment(fv, th)
	assert.Equal(t, Passed, d.Flatness)
	assert.Equal(t, Failed, d.Pitch)
	assert.Equal(t, Passed, d.Voicing)
	assert.Equal(t, Failed, d.VoiceBand)
}

func TestClassifySegmentIsDeterministic(t *testing.T) {
	th := newTestThresholds()
	fv := voiceLike()
	fv.Flatness = 0.39999
	assert.Equal(t, ClassifySegment(fv, th), ClassifySegment(fv, th))
}

func TestDecisionJSON(t *testing.T) {
	d := ClassifySegment(voiceLike(), newTestThresholds())
	data, err := json.Marshal(d)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"label":"voice","score":6,"energy_pass":true,"flatness":"pass","pitch":"pass","voicing":"pass","voice_band":"pass"}`, string(data))
}
