package events

import (
	"encoding/json"
	"testing"

	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/sentence"
)

func TestFromSentence(t *testing.T) {
	ss := sentence.SpeakerSentence{
		Sentence: sentence.Sentence{
			ID:       "sn-1",
			StreamID: "stream-1",
			StartMS:  1000,
			EndMS:    3000,
			Text:     "I feel unheard when you interrupt me.",
		},
		Label:     diarize.Resolved("alice"),
		LabelConf: 0.91,
		Coverage:  0.88,
	}
	ss.Flags.VoiceID = true

	ev := FromSentence(ss)
	if ev.Type != TypeSentence {
		t.Errorf("type = %q, want %q", ev.Type, TypeSentence)
	}
	if ev.Label != "alice" {
		t.Errorf("label = %q, want alice", ev.Label)
	}
	if ev.StartMS != 1000 || ev.EndMS != 3000 {
		t.Errorf("bounds [%d,%d]", ev.StartMS, ev.EndMS)
	}
	if !ev.Flags.VoiceID || ev.Flags.Patched {
		t.Errorf("flags %+v", ev.Flags)
	}
}

func TestFromSentencePatchType(t *testing.T) {
	ss := sentence.SpeakerSentence{
		Sentence: sentence.Sentence{ID: "sn-1", StreamID: "stream-1", Text: "hello there"},
		Label:    diarize.Speaker(1),
	}
	ss.Flags.Patched = true

	ev := FromSentence(ss)
	if ev.Type != TypeSentencePatch {
		t.Errorf("type = %q, want %q", ev.Type, TypeSentencePatch)
	}
	if ev.Label != "spk1" {
		t.Errorf("label = %q, want spk1", ev.Label)
	}
}

func TestSentenceEventMarshal(t *testing.T) {
	ev := SentenceEvent{
		Type:     TypeSentence,
		ID:       "sn-1",
		StreamID: "stream-1",
		StartMS:  0,
		EndMS:    1500,
		Label:    "OVERLAP",
		Text:     "both at once",
		Flags:    Flags{Overlap: true},
	}
	data, err := ev.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != TypeSentence {
		t.Errorf("type = %v", decoded["type"])
	}
	if decoded["label"] != "OVERLAP" {
		t.Errorf("label = %v", decoded["label"])
	}
	flags, ok := decoded["flags"].(map[string]interface{})
	if !ok || flags["overlap"] != true {
		t.Errorf("flags = %v", decoded["flags"])
	}
	if _, ok := decoded["end_ms"]; !ok {
		t.Error("end_ms missing from wire form")
	}
}
