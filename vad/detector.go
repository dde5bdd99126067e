package vad

import (
	"math"
	"time"

	"github.com/skillsenselab/speakerline/audio"
)

// SpeechRegion is a contiguous span of detected speech. A long
// unbroken utterance is reported as several contiguous regions, one per
// MaxRegion of audio, so downstream consumers see speech while it is
// still running.
type SpeechRegion struct {
	Range      audio.SampleRange
	Confidence float64
}

// Pause is a span of detected silence. DurationMS is the silence
// observed so far; a single silence episode may produce two events, one
// at the minimum pause duration and one when it becomes obvious.
type Pause struct {
	Range      audio.SampleRange
	DurationMS int64
	Confidence float64
}

// Config tunes the detector.
type Config struct {
	SampleRate      int
	EnergyThreshold float64       // normalized RMS above which a frame is speech
	Hangover        time.Duration // silence tolerated inside a speech region
	MinPause        time.Duration // shortest silence reported as a pause
	ObviousPause    time.Duration // silence considered an obvious sentence break
	MaxRegion       time.Duration // open speech longer than this is cut into partial regions
}

// ApplyDefaults fills zero fields with standard values.
func (c *Config) ApplyDefaults() {
	if c.EnergyThreshold == 0 {
		c.EnergyThreshold = 0.015
	}
	if c.Hangover == 0 {
		c.Hangover = 300 * time.Millisecond
	}
	if c.MinPause == 0 {
		c.MinPause = 200 * time.Millisecond
	}
	if c.ObviousPause == 0 {
		c.ObviousPause = 600 * time.Millisecond
	}
	if c.MaxRegion == 0 {
		c.MaxRegion = 3 * time.Second
	}
}

// Detector is the per-stream VAD state machine. Not safe for concurrent
// use; the session runs one detector per stream on a single worker.
type Detector struct {
	cfg Config

	inSpeech     bool
	speechStart  int64
	silenceStart int64
	energySum    float64
	energyFrames int64
	minPauseSent bool
	obviousSent  bool
}

// NewDetector creates a detector for one stream.
func NewDetector(cfg Config) *Detector {
	cfg.ApplyDefaults()
	return &Detector{cfg: cfg}
}

// ProcessFrame consumes one 20ms frame and returns any speech regions
// and pause events completed or crossed by it.
func (d *Detector) ProcessFrame(f audio.Frame) ([]SpeechRegion, []Pause) {
	energy := rmsEnergy(audio.DecodeS16(f.PCM))
	speech := energy >= d.cfg.EnergyThreshold

	var regions []SpeechRegion
	var pauses []Pause

	switch {
	case speech && !d.inSpeech:
		// Silence episode ends; report its final extent if long enough.
		if d.silenceStart >= 0 {
			p := d.pauseAt(f.Range.Start)
			if p.DurationMS >= d.cfg.MinPause.Milliseconds() {
				pauses = append(pauses, p)
			}
		}
		d.inSpeech = true
		d.speechStart = f.Range.Start
		d.silenceStart = -1
		d.energySum = energy
		d.energyFrames = 1

	case speech && d.inSpeech:
		d.silenceStart = -1
		d.energySum += energy
		d.energyFrames++
		// A monologue with no pauses must still reach transcription:
		// cut a partial region at MaxRegion and keep the span open from
		// the cut point.
		open := f.Range.End - d.speechStart
		if audio.SamplesToMS(open, d.cfg.SampleRate) >= d.cfg.MaxRegion.Milliseconds() {
			regions = append(regions, SpeechRegion{
				Range:      audio.SampleRange{Start: d.speechStart, End: f.Range.End},
				Confidence: d.regionConfidence(),
			})
			d.speechStart = f.Range.End
			d.energySum = 0
			d.energyFrames = 0
		}

	case !speech && d.inSpeech:
		if d.silenceStart < 0 {
			d.silenceStart = f.Range.Start
		}
		silence := f.Range.End - d.silenceStart
		if audio.SamplesToMS(silence, d.cfg.SampleRate) >= d.cfg.Hangover.Milliseconds() {
			// Empty when silence landed exactly on a MaxRegion cut.
			if d.silenceStart > d.speechStart {
				regions = append(regions, SpeechRegion{
					Range:      audio.SampleRange{Start: d.speechStart, End: d.silenceStart},
					Confidence: d.regionConfidence(),
				})
			}
			d.inSpeech = false
			d.minPauseSent = false
			d.obviousSent = false
		}

	default: // silence continues
		if d.silenceStart < 0 {
			d.silenceStart = f.Range.Start
		}
		p := d.pauseAt(f.Range.End)
		if !d.minPauseSent && p.DurationMS >= d.cfg.MinPause.Milliseconds() {
			d.minPauseSent = true
			pauses = append(pauses, p)
		}
		if !d.obviousSent && p.DurationMS >= d.cfg.ObviousPause.Milliseconds() {
			d.obviousSent = true
			pauses = append(pauses, p)
		}
	}

	return regions, pauses
}

// Flush closes any open speech region at teardown.
func (d *Detector) Flush(endSample int64) []SpeechRegion {
	if !d.inSpeech || endSample <= d.speechStart {
		return nil
	}
	d.inSpeech = false
	return []SpeechRegion{{
		Range:      audio.SampleRange{Start: d.speechStart, End: endSample},
		Confidence: d.regionConfidence(),
	}}
}

func (d *Detector) pauseAt(end int64) Pause {
	r := audio.SampleRange{Start: d.silenceStart, End: end}
	return Pause{
		Range:      r,
		DurationMS: r.DurationMS(d.cfg.SampleRate),
		Confidence: 0.9, // energy silence is a strong signal at 20ms resolution
	}
}

func (d *Detector) regionConfidence() float64 {
	if d.energyFrames == 0 {
		return 0
	}
	mean := d.energySum / float64(d.energyFrames)
	conf := mean / (d.cfg.EnergyThreshold * 4)
	if conf > 1 {
		conf = 1
	}
	return conf
}

// rmsEnergy returns normalized RMS energy of int16 samples in [0, 1].
func rmsEnergy(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
