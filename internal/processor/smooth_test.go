package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func energies(vs []FeatureVector) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = v.TotalEnergy
	}
	return out
}

func TestSmoothFeatures(t *testing.T) {
	in := []FeatureVector{
		{TotalEnergy: 0, PitchHz: 0},
		{TotalEnergy: 3, PitchHz: 300},
		{TotalEnergy: 6, PitchHz: 0},
		{TotalEnergy: 9, PitchHz: 150},
	}
	orig := append([]FeatureVector(nil), in...)

	out := SmoothFeatures(in, 3)
	require.Len(t, out, len(in))
	assert.Equal(t, orig, in, "input must not be modified")

	// Edges average the neighbours that exist
	assert.InDeltaSlice(t, []float64{1.5, 3, 6, 7.5}, energies(out), 1e-12)
	assert.InDelta(t, 150, out[0].PitchHz, 1e-12)
	assert.InDelta(t, 100, out[1].PitchHz, 1e-12)
	assert.InDelta(t, 75, out[3].PitchHz, 1e-12)
}

func TestSmoothFeaturesIsSinglePass(t *testing.T) {
	in := []FeatureVector{
		{Flatness: 0}, {Flatness: 1}, {Flatness: 0}, {Flatness: 0}, {Flatness: 1},
	}
	once := SmoothFeatures(in, 3)
	twice := SmoothFeatures(once, 3)

	assert.NotEqual(t, once, twice, "smoothing an already smoothed sequence must smooth further")
	assert.InDelta(t, (once[0].Flatness+once[1].Flatness+once[2].Flatness)/3, twice[1].Flatness, 1e-12)
}

func TestSmoothFeaturesDegenerate(t *testing.T) {
	assert.Empty(t, SmoothFeatures(nil, 3))

	single := []FeatureVector{{TotalEnergy: 2, Flatness: 0.5}}
	assert.Equal(t, single, SmoothFeatures(single, 3))

	in := []FeatureVector{{TotalEnergy: 1}, {TotalEnergy: 5}}
	assert.Equal(t, in, SmoothFeatures(in, 1))
}

func TestSmoothFeaturesMasked(t *testing.T) {
	in := []FeatureVector{
		{TotalEnergy: 2, VoiceBandRatioLog: -1},
		{TotalEnergy: 4, VoiceBandRatioLog: -2},
		{TotalEnergy: 100, VoiceBandRatioLog: VoiceBandSentinel},
	}
	valid := []bool{true, true, false}

	out := SmoothFeaturesMasked(in, valid, 3)
	require.Len(t, out, len(in))

	// The masked segment never enters a neighbour's window
	assert.InDeltaSlice(t, []float64{3, 3}, energies(out[:2]), 1e-12)
	assert.InDelta(t, -1.5, out[1].VoiceBandRatioLog, 1e-12)
	assert.Equal(t, in[2], out[2], "masked segment keeps its own vector")

	assert.Equal(t, SmoothFeatures(in, 3), SmoothFeaturesMasked(in, nil, 3))
	assert.Equal(t, in, SmoothFeaturesMasked(in, []bool{false, false, false}, 3))
}

func TestSmoothLabels(t *testing.T) {
	v, n := LabelVoice, LabelNoise

	tests := []struct {
		name   string
		in     []Label
		window int
		want   []Label
	}{
		{"isolated voice removed", []Label{n, n, v, n, n}, 3, []Label{n, n, n, n, n}},
		{"isolated noise filled", []Label{v, v, n, v, v}, 3, []Label{v, v, v, v, v}},
		{"edge tie keeps own label", []Label{v, n, n}, 3, []Label{v, n, n}},
		{"even window tie keeps own label", []Label{v, n, v, n}, 2, []Label{v, n, v, n}},
		{"wide window", []Label{v, v, n, n, v, n, n}, 5, []Label{v, v, v, n, n, n, n}},
		{"disabled", []Label{n, v, n}, 1, []Label{n, v, n}},
		{"empty", nil, 3, []Label{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SmoothLabels(tt.in, tt.window))
		})
	}
}
