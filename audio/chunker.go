package audio

import "time"

// ChunkerConfig sets the frame and window geometry.
type ChunkerConfig struct {
	SampleRate int
	FrameLen   time.Duration // VAD frame, default 20ms
	WindowLen  time.Duration // diarization window, default 1.2s
	WindowHop  time.Duration // diarization hop, default 400ms
}

// ApplyDefaults fills zero fields with the standard geometry.
func (c *ChunkerConfig) ApplyDefaults() {
	if c.FrameLen == 0 {
		c.FrameLen = 20 * time.Millisecond
	}
	if c.WindowLen == 0 {
		c.WindowLen = 1200 * time.Millisecond
	}
	if c.WindowHop == 0 {
		c.WindowHop = 400 * time.Millisecond
	}
}

// Chunker slices the monotonic sample stream into fixed 20ms frames for
// VAD and overlapping windows for diarization. It holds no audio of its
// own beyond one pending frame/window worth of look-back; window PCM is
// read back from the ring buffer so the chunker never duplicates the
// retention store.
type Chunker struct {
	cfg  ChunkerConfig
	ring *RingBuffer

	frameSamples  int64
	windowSamples int64
	hopSamples    int64

	nextFrameStart  int64
	nextWindowStart int64
}

// NewChunker creates a chunker reading audio back from the given ring buffer.
func NewChunker(cfg ChunkerConfig, ring *RingBuffer) *Chunker {
	cfg.ApplyDefaults()
	return &Chunker{
		cfg:           cfg,
		ring:          ring,
		frameSamples:  int64(cfg.FrameLen.Milliseconds()) * int64(cfg.SampleRate) / 1000,
		windowSamples: int64(cfg.WindowLen.Milliseconds()) * int64(cfg.SampleRate) / 1000,
		hopSamples:    int64(cfg.WindowHop.Milliseconds()) * int64(cfg.SampleRate) / 1000,
	}
}

// Advance consumes everything written to the ring buffer so far and
// returns the newly completed frames and windows, in order.
func (c *Chunker) Advance() ([]Frame, []Window) {
	head := c.ring.Head()

	var frames []Frame
	for c.nextFrameStart+c.frameSamples <= head {
		r := SampleRange{Start: c.nextFrameStart, End: c.nextFrameStart + c.frameSamples}
		pcm, got := c.ring.Read(r)
		c.nextFrameStart = r.End
		if got != r {
			// Evicted before we got to it; skip forward.
			continue
		}
		frames = append(frames, Frame{Range: r, PCM: pcm})
	}

	var windows []Window
	for c.nextWindowStart+c.windowSamples <= head {
		r := SampleRange{Start: c.nextWindowStart, End: c.nextWindowStart + c.windowSamples}
		pcm, got := c.ring.Read(r)
		c.nextWindowStart += c.hopSamples
		if got != r {
			continue
		}
		windows = append(windows, Window{Range: r, PCM: pcm})
	}

	return frames, windows
}
