package sentence

import "github.com/skillsenselab/speakerline/diarize"

// Flags carries the attribution qualifiers of a speaker sentence.
type Flags struct {
	Overlap   bool `json:"overlap"`
	Uncertain bool `json:"uncertain"`
	Patched   bool `json:"patched"`
	VoiceID   bool `json:"voice_id"`
}

// Sentence is one finalized UI sentence. It is always final once
// emitted.
type Sentence struct {
	ID       string `json:"id"`
	StreamID string `json:"stream_id"`
	StartMS  int64  `json:"start_ms"`
	EndMS    int64  `json:"end_ms"`
	Text     string `json:"text"`
	// SplitFrom references the sentence this one was force-split off,
	// for downstream correlation. Empty for unsplit sentences.
	SplitFrom string `json:"split_from,omitempty"`
}

// DurationMS returns the sentence span in milliseconds.
func (s Sentence) DurationMS() int64 { return s.EndMS - s.StartMS }

// SpeakerSentence is a sentence with exactly one speaker label attached.
type SpeakerSentence struct {
	Sentence
	Label     diarize.Label `json:"label"`
	LabelConf float64       `json:"label_conf"`
	Coverage  float64       `json:"coverage"`
	Flags     Flags         `json:"flags"`
}
