package events

import (
	"encoding/json"

	"github.com/skillsenselab/speakerline/sentence"
)

// Event type constants.
const (
	// TypeSentence is a live finalized sentence.
	TypeSentence = "ui.sentence"

	// TypeSentencePatch amends an already-emitted sentence in place.
	TypeSentencePatch = "ui.sentence.patch"
)

// Flags mirrors sentence.Flags on the wire.
type Flags struct {
	Overlap   bool `json:"overlap"`
	Uncertain bool `json:"uncertain"`
	Patched   bool `json:"patched"`
	VoiceID   bool `json:"voice_id"`
}

// SentenceEvent is the wire form of a finalized or patched sentence.
type SentenceEvent struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	StreamID  string  `json:"stream_id"`
	StartMS   int64   `json:"start_ms"`
	EndMS     int64   `json:"end_ms"`
	Label     string  `json:"label"`
	LabelConf float64 `json:"label_conf"`
	Coverage  float64 `json:"coverage"`
	Text      string  `json:"text"`
	Flags     Flags   `json:"flags"`
}

// FromSentence converts an attributed sentence to its wire form.
func FromSentence(ss sentence.SpeakerSentence) SentenceEvent {
	typ := TypeSentence
	if ss.Flags.Patched {
		typ = TypeSentencePatch
	}
	return SentenceEvent{
		Type:      typ,
		ID:        ss.ID,
		StreamID:  ss.StreamID,
		StartMS:   ss.StartMS,
		EndMS:     ss.EndMS,
		Label:     ss.Label.String(),
		LabelConf: ss.LabelConf,
		Coverage:  ss.Coverage,
		Text:      ss.Text,
		Flags: Flags{
			Overlap:   ss.Flags.Overlap,
			Uncertain: ss.Flags.Uncertain,
			Patched:   ss.Flags.Patched,
			VoiceID:   ss.Flags.VoiceID,
		},
	}
}

// Marshal renders the event as JSON.
func (e SentenceEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
