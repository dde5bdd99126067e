package session

import (
	"time"

	"github.com/skillsenselab/speakerline/audio"
	"github.com/skillsenselab/speakerline/coach"
	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/sentence"
	"github.com/skillsenselab/speakerline/timeline"
	"github.com/skillsenselab/speakerline/transcribe"
	"github.com/skillsenselab/speakerline/vad"
	"github.com/skillsenselab/speakerline/voiceid"
)

// Config holds the pipeline parameters shared by all streams. A
// stream's sample rate arrives with the session request and overrides
// SampleRate.
type Config struct {
	// SampleRate is the default sample rate in Hz.
	SampleRate int `mapstructure:"sample_rate"`

	// Language hints the transcription engine.
	Language string `mapstructure:"language"`

	// RingRetention is how much raw audio each stream keeps for
	// refinement and voice matching.
	RingRetention time.Duration `mapstructure:"ring_retention"`

	// RefineInterval is how often refinement passes run.
	RefineInterval time.Duration `mapstructure:"refine_interval"`

	// RefineWindow is how much trailing audio each refinement covers.
	RefineWindow time.Duration `mapstructure:"refine_window"`

	// TickInterval drives assembler timeouts and stitcher deadlines.
	TickInterval time.Duration `mapstructure:"tick_interval"`

	// RawQueue bounds buffered ingest chunks (drop oldest when full).
	RawQueue int `mapstructure:"raw_queue"`

	// DiarizeQueue bounds pending diarization work (drop preview
	// windows first, keep refinement jobs).
	DiarizeQueue int `mapstructure:"diarize_queue"`

	// SegmentQueue bounds pending assembly input (drop non-final
	// segments first).
	SegmentQueue int `mapstructure:"segment_queue"`

	VAD          vad.Config                  `mapstructure:"vad"`
	Chunker      audio.ChunkerConfig         `mapstructure:"chunker"`
	Timeline     timeline.StoreConfig        `mapstructure:"timeline"`
	Assembler    sentence.AssemblerConfig    `mapstructure:"assembler"`
	Attributor   sentence.AttributorConfig   `mapstructure:"attributor"`
	Stitcher     sentence.StitcherConfig     `mapstructure:"stitcher"`
	Reattributor sentence.ReattributorConfig `mapstructure:"reattributor"`
	Gate         coach.GateConfig            `mapstructure:"coach"`
	Matcher      voiceid.MatcherConfig       `mapstructure:"voiceid"`
	Diarize      diarize.AdapterConfig       `mapstructure:"diarize"`
	Transcribe   transcribe.AdapterConfig    `mapstructure:"transcribe"`
}

// ApplyDefaults fills zero fields with the standard parameters.
func (c *Config) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.RingRetention == 0 {
		c.RingRetention = 90 * time.Second
	}
	if c.RefineInterval == 0 {
		c.RefineInterval = 4 * time.Second
	}
	if c.RefineWindow == 0 {
		c.RefineWindow = 10 * time.Second
	}
	if c.TickInterval == 0 {
		c.TickInterval = 100 * time.Millisecond
	}
	if c.RawQueue == 0 {
		c.RawQueue = 64
	}
	if c.DiarizeQueue == 0 {
		c.DiarizeQueue = 32
	}
	if c.SegmentQueue == 0 {
		c.SegmentQueue = 64
	}
}

// forRate copies the config with every sample-rate-dependent sub-config
// stamped for the stream's actual rate.
func (c Config) forRate(sampleRate int) Config {
	out := c
	out.SampleRate = sampleRate
	out.VAD.SampleRate = sampleRate
	out.Chunker.SampleRate = sampleRate
	out.Timeline.SampleRate = sampleRate
	out.Attributor.SampleRate = sampleRate
	out.Reattributor.SampleRate = sampleRate
	out.Diarize.SampleRate = sampleRate
	out.Transcribe.SampleRate = sampleRate
	out.Transcribe.Language = c.Language
	return out
}
