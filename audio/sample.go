package audio

// BytesPerSample is the width of one s16le PCM sample.
const BytesPerSample = 2

// SampleRange is a half-open range [Start, End) of sample indices.
type SampleRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Len returns the number of samples in the range.
func (r SampleRange) Len() int64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether the range contains no samples.
func (r SampleRange) Empty() bool { return r.End <= r.Start }

// Contains reports whether the sample index falls inside the range.
func (r SampleRange) Contains(sample int64) bool {
	return sample >= r.Start && sample < r.End
}

// Intersect returns the overlap of two ranges. The result is empty when
// the ranges do not overlap.
func (r SampleRange) Intersect(other SampleRange) SampleRange {
	out := SampleRange{Start: max64(r.Start, other.Start), End: min64(r.End, other.End)}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// Overlaps reports whether the two ranges share at least one sample.
func (r SampleRange) Overlaps(other SampleRange) bool {
	return !r.Intersect(other).Empty()
}

// Clamp restricts the range to the given bounds and reports whether
// anything was cut. Used to repair malformed input without failing.
func (r SampleRange) Clamp(bounds SampleRange) (SampleRange, bool) {
	clamped := r.Intersect(bounds)
	return clamped, clamped != r
}

// DurationMS converts the range length to milliseconds at the given rate.
func (r SampleRange) DurationMS(sampleRate int) int64 {
	if sampleRate <= 0 {
		return 0
	}
	return r.Len() * 1000 / int64(sampleRate)
}

// MSToSamples converts a millisecond offset to a sample offset.
func MSToSamples(ms int64, sampleRate int) int64 {
	return ms * int64(sampleRate) / 1000
}

// SamplesToMS converts a sample offset to a millisecond offset.
func SamplesToMS(samples int64, sampleRate int) int64 {
	if sampleRate <= 0 {
		return 0
	}
	return samples * 1000 / int64(sampleRate)
}

// RangeFromMS builds a sample range from a millisecond range.
func RangeFromMS(startMS, endMS int64, sampleRate int) SampleRange {
	return SampleRange{
		Start: MSToSamples(startMS, sampleRate),
		End:   MSToSamples(endMS, sampleRate),
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
