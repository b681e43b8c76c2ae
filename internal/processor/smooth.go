package processor

// SmoothFeatures returns a centred moving average of the feature sequence over
// window segments. Edge segments average whatever neighbours exist. The input is
// not modified; a window of 1 or less returns an unchanged copy.
func SmoothFeatures(vectors []FeatureVector, window int) []FeatureVector {
	return SmoothFeaturesMasked(vectors, nil, window)
}

// SmoothFeaturesMasked is SmoothFeatures restricted to segments whose valid entry
// is true. Invalid segments never enter a neighbour's average and keep their own
// vector unchanged. A nil mask treats every segment as valid.
func SmoothFeaturesMasked(vectors []FeatureVector, valid []bool, window int) []FeatureVector {
	out := make([]FeatureVector, len(vectors))
	copy(out, vectors)
	if window <= 1 {
		return out
	}
	ok := func(i int) bool { return valid == nil || valid[i] }

	before := (window - 1) / 2
	after := window / 2
	for i := range vectors {
		if !ok(i) {
			continue
		}
		lo := max(0, i-before)
		hi := min(len(vectors)-1, i+after)

		var acc FeatureVector
		var n float64
		for j := lo; j <= hi; j++ {
			if !ok(j) {
				continue
			}
			v := vectors[j]
			acc.TotalEnergy += v.TotalEnergy
			acc.Flatness += v.Flatness
			acc.PitchHz += v.PitchHz
			acc.VoicingProbability += v.VoicingProbability
			acc.VoiceBandRatioLog += v.VoiceBandRatioLog
			n++
		}
		out[i] = FeatureVector{
			TotalEnergy:        acc.TotalEnergy / n,
			Flatness:           acc.Flatness / n,
			PitchHz:            acc.PitchHz / n,
			VoicingProbability: acc.VoicingProbability / n,
			VoiceBandRatioLog:  acc.VoiceBandRatioLog / n,
		}
	}
	return out
}

// SmoothLabels applies a centred majority vote over window labels. Ties keep the
// segment's own label. A window of 1 or less returns an unchanged copy.
func SmoothLabels(labels []Label, window int) []Label {
	out := make([]Label, len(labels))
	copy(out, labels)
	if window <= 1 {
		return out
	}

	before := (window - 1) / 2
	after := window / 2
	for i := range labels {
		lo := max(0, i-before)
		hi := min(len(labels)-1, i+after)

		var voice, noise int
		for _, l := range labels[lo : hi+1] {
			if l == LabelVoice {
				voice++
			} else {
				noise++
			}
		}
		switch {
		case voice > noise:
			out[i] = LabelVoice
		case noise > voice:
			out[i] = LabelNoise
		}
	}
	return out
}
