package moments

// FindPeakEdges isolates the window around the global maximum of signal that
// is bounded by samples at or below the signal's minimum. left is inclusive,
// right exclusive. Secondary peaks outside the window are ignored.
//
// When the signal never drops back to the minimum right of the maximum the
// window extends to len(signal).
func FindPeakEdges(signal []float32) (left, right int) {
	if len(signal) == 0 {
		return 0, 0
	}

	threshold := signal[0]
	imax := 0
	for i, v := range signal {
		if v < threshold {
			threshold = v
		}
		if v > signal[imax] {
			imax = i
		}
	}

	left, right = 0, len(signal)
	for i := imax; i < len(signal); i++ {
		if signal[i] <= threshold {
			right = i
			break
		}
	}
	for i := imax; i >= 0; i-- {
		if signal[i] <= threshold {
			left = i + 1
			break
		}
	}
	return left, right
}
