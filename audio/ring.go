package audio

import (
	"sync"

	"github.com/skillsenselab/speakerline/logger"
)

// RingBuffer is a bounded-retention store of raw PCM keyed by sample
// index. Writes append at the stream head; reads address any retained
// sample range and are clamped to what is still available.
type RingBuffer struct {
	mu       sync.Mutex
	buf      []byte
	capacity int64 // samples
	start    int64 // oldest retained sample
	end      int64 // next sample to be written
	log      *logger.Logger
}

// NewRingBuffer creates a ring buffer retaining the given number of
// samples (typically 60–120s worth).
func NewRingBuffer(capacitySamples int64) *RingBuffer {
	if capacitySamples <= 0 {
		capacitySamples = 1
	}
	return &RingBuffer{
		buf:      make([]byte, capacitySamples*BytesPerSample),
		capacity: capacitySamples,
		log:      logger.Get("ringbuffer"),
	}
}

// Retained returns the sample range currently held in the buffer.
func (rb *RingBuffer) Retained() SampleRange {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return SampleRange{Start: rb.start, End: rb.end}
}

// Head returns the next sample index to be written.
func (rb *RingBuffer) Head() int64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.end
}

// Write appends a chunk at its sample range. Overlapping or gapped
// ranges are repaired: an overlap with already-written audio is skipped,
// a gap is zero-filled. Both are logged as correctness warnings.
func (rb *RingBuffer) Write(chunk Chunk) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	r := chunk.Range
	pcm := chunk.PCM
	if r.Start < rb.end {
		// Non-monotonic write: drop the prefix that rewinds the stream.
		skip := rb.end - r.Start
		rb.log.Warn("clamped non-monotonic chunk", logger.Fields(
			logger.FieldStream, chunk.StreamID,
			logger.FieldRangeFrom, r.Start,
			logger.FieldRangeTo, r.End,
			"skipped_samples", skip,
		))
		if skip*BytesPerSample >= int64(len(pcm)) {
			return
		}
		pcm = pcm[skip*BytesPerSample:]
		r.Start = rb.end
	}
	if r.Start > rb.end {
		gap := r.Start - rb.end
		if gap > rb.capacity {
			gap = rb.capacity
			rb.end = r.Start - gap
			rb.start = rb.end
		}
		rb.log.Warn("zero-filled gap in sample stream", logger.Fields(
			logger.FieldStream, chunk.StreamID,
			"gap_samples", gap,
		))
		rb.writeLocked(make([]byte, gap*BytesPerSample))
	}
	rb.writeLocked(pcm)
}

func (rb *RingBuffer) writeLocked(pcm []byte) {
	n := int64(len(pcm)) / BytesPerSample
	if n > rb.capacity {
		// Only the tail can survive anyway.
		pcm = pcm[(n-rb.capacity)*BytesPerSample:]
		rb.end += n - rb.capacity
		n = rb.capacity
	}
	for i := int64(0); i < n; i++ {
		pos := ((rb.end + i) % rb.capacity) * BytesPerSample
		copy(rb.buf[pos:pos+BytesPerSample], pcm[i*BytesPerSample:(i+1)*BytesPerSample])
	}
	rb.end += n
	if rb.end-rb.start > rb.capacity {
		rb.start = rb.end - rb.capacity
	}
}

// Read returns a copy of the PCM for the requested range, clamped to
// what is retained. The returned range is the range actually read.
func (rb *RingBuffer) Read(r SampleRange) ([]byte, SampleRange) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	clamped := r.Intersect(SampleRange{Start: rb.start, End: rb.end})
	if clamped.Empty() {
		return nil, clamped
	}
	out := make([]byte, clamped.Len()*BytesPerSample)
	for i := int64(0); i < clamped.Len(); i++ {
		pos := ((clamped.Start + i) % rb.capacity) * BytesPerSample
		copy(out[i*BytesPerSample:(i+1)*BytesPerSample], rb.buf[pos:pos+BytesPerSample])
	}
	return out, clamped
}
