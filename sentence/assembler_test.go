package sentence

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/skillsenselab/speakerline/transcribe"
	"github.com/skillsenselab/speakerline/vad"
)

func newTestAssembler() *Assembler {
	return NewAssembler("stream-1", AssemblerConfig{})
}

func finalSeg(startMS, endMS int64, text string) transcribe.Segment {
	return transcribe.Segment{StartMS: startMS, EndMS: endMS, Text: text, Confidence: 0.9, Final: true}
}

func TestAssemblerPunctuationFinalizes(t *testing.T) {
	a := newTestAssembler()

	out := a.OnSegment(finalSeg(0, 2000, "I feel unheard when you interrupt me."))
	if len(out) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(out))
	}
	sn := out[0]
	if sn.Text != "I feel unheard when you interrupt me." {
		t.Errorf("unexpected text %q", sn.Text)
	}
	if sn.StartMS != 0 || sn.EndMS != 2000 {
		t.Errorf("unexpected bounds [%d,%d]", sn.StartMS, sn.EndMS)
	}
	if sn.SplitFrom != "" {
		t.Errorf("unexpected split_from %q", sn.SplitFrom)
	}
	if sn.ID == "" {
		t.Error("expected a sentence id")
	}
}

func TestAssemblerShortPunctuatedKeepsAccumulating(t *testing.T) {
	a := newTestAssembler()

	if out := a.OnSegment(finalSeg(0, 500, "Okay.")); len(out) != 0 {
		t.Fatalf("short punctuated fragment finalized early: %v", out)
	}
	out := a.OnSegment(finalSeg(1000, 2500, "Let's keep going then."))
	if len(out) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(out))
	}
	if out[0].Text != "Okay. Let's keep going then." {
		t.Errorf("unexpected text %q", out[0].Text)
	}
	if out[0].StartMS != 0 || out[0].EndMS != 2500 {
		t.Errorf("unexpected bounds [%d,%d]", out[0].StartMS, out[0].EndMS)
	}
}

func TestAssemblerObviousPauseFinalizesAfterHold(t *testing.T) {
	a := newTestAssembler()

	a.OnSegment(finalSeg(0, 1500, "so what I was trying to say"))
	out := a.OnPause(vad.Pause{DurationMS: 700}, 1500)
	if len(out) != 0 {
		t.Fatalf("pause finalized before jitter hold expired: %v", out)
	}

	// Hold runs until pause start + duration + jitter.
	if out := a.Tick(2400); len(out) != 0 {
		t.Fatalf("tick inside hold finalized: %v", out)
	}
	out = a.Tick(2600)
	if len(out) != 1 {
		t.Fatalf("expected 1 sentence after hold, got %d", len(out))
	}
	if out[0].EndMS != 1500 {
		t.Errorf("end not clamped to pause start: got %d", out[0].EndMS)
	}
}

func TestAssemblerJitterHoldJoinsTrailingSegment(t *testing.T) {
	a := newTestAssembler()

	a.OnSegment(finalSeg(0, 1200, "and then we talked about the"))
	a.OnPause(vad.Pause{DurationMS: 650}, 1400)

	// A segment starting before the pause joins the closing sentence.
	if out := a.OnSegment(finalSeg(1300, 1400, "schedule")); len(out) != 0 {
		t.Fatalf("trailing segment finalized early: %v", out)
	}
	out := a.Tick(3000)
	if len(out) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(out))
	}
	if out[0].Text != "and then we talked about the schedule" {
		t.Errorf("unexpected text %q", out[0].Text)
	}
}

func TestAssemblerSegmentAfterPauseOpensNewSentence(t *testing.T) {
	a := newTestAssembler()

	a.OnSegment(finalSeg(0, 1500, "so what I was trying to say"))
	a.OnPause(vad.Pause{DurationMS: 700}, 1500)

	// Text starting after the pause belongs to the next sentence.
	out := a.OnSegment(finalSeg(2300, 3300, "Right, that makes sense to me."))
	if len(out) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(out))
	}
	if out[0].Text != "so what I was trying to say" {
		t.Errorf("unexpected first text %q", out[0].Text)
	}
	if out[0].EndMS != 1500 {
		t.Errorf("first sentence end not clamped to pause: %d", out[0].EndMS)
	}
	if out[1].Text != "Right, that makes sense to me." {
		t.Errorf("unexpected second text %q", out[1].Text)
	}
	if out[1].StartMS != 2300 {
		t.Errorf("second sentence start: %d", out[1].StartMS)
	}
}

func TestAssemblerMaxSentenceDuration(t *testing.T) {
	a := newTestAssembler()

	a.OnSegment(finalSeg(0, 3000, "we kept going back and forth"))
	a.OnSegment(finalSeg(3200, 6000, "about the same thing over and over"))
	out := a.OnSegment(finalSeg(6200, 8500, "without ever landing anywhere"))
	if len(out) != 1 {
		t.Fatalf("expected duration cap to finalize, got %d sentences", len(out))
	}
	if !strings.HasSuffix(out[0].Text, "without ever landing anywhere") {
		t.Errorf("unexpected text %q", out[0].Text)
	}
	if out[0].StartMS != 0 || out[0].EndMS != 8500 {
		t.Errorf("unexpected bounds [%d,%d]", out[0].StartMS, out[0].EndMS)
	}
}

func TestAssemblerForceSplitOnMaxChars(t *testing.T) {
	a := newTestAssembler()

	chunk := strings.TrimSpace(strings.Repeat("alpha beta gamma ", 5)) // 84 chars
	a.OnSegment(finalSeg(0, 2000, chunk))
	a.OnSegment(finalSeg(2100, 4000, chunk))
	out := a.OnSegment(finalSeg(4100, 6000, chunk))
	if len(out) != 1 {
		t.Fatalf("expected forced split to emit one head, got %d", len(out))
	}
	head := out[0]
	if len(head.Text) > 220 {
		t.Errorf("head exceeds max length: %d chars", len(head.Text))
	}
	if strings.Contains(head.Text, "  ") || strings.HasSuffix(head.Text, " ") {
		t.Errorf("head not trimmed cleanly: %q", head.Text)
	}
	if head.SplitFrom != "" {
		t.Errorf("head carries split_from %q", head.SplitFrom)
	}

	// The remainder stays open and correlates back to the head.
	tail := a.Flush()
	if len(tail) != 1 {
		t.Fatalf("expected the tail on flush, got %d", len(tail))
	}
	if tail[0].SplitFrom != head.ID {
		t.Errorf("tail split_from = %q, want %q", tail[0].SplitFrom, head.ID)
	}
	if tail[0].StartMS != head.EndMS {
		t.Errorf("tail start %d does not continue head end %d", tail[0].StartMS, head.EndMS)
	}
	joined := head.Text + " " + tail[0].Text
	if joined != chunk+" "+chunk+" "+chunk {
		t.Errorf("split lost or duplicated text:\n%q", joined)
	}
}

func TestAssemblerForceSplitKeepsRunesIntact(t *testing.T) {
	a := newTestAssembler()

	// 240 bytes of 3-byte runes with no spaces or punctuation: the hard
	// cut lands mid-rune unless it backs off to a boundary.
	text := strings.Repeat("数", 80)
	out := a.OnSegment(finalSeg(0, 6000, text))
	if len(out) != 1 {
		t.Fatalf("expected forced split to emit one head, got %d", len(out))
	}
	head := out[0]
	if !utf8.ValidString(head.Text) {
		t.Errorf("head is not valid UTF-8: %q", head.Text)
	}
	if len(head.Text) > 220 {
		t.Errorf("head exceeds max length: %d bytes", len(head.Text))
	}

	tail := a.Flush()
	if len(tail) != 1 {
		t.Fatalf("expected the tail on flush, got %d", len(tail))
	}
	if !utf8.ValidString(tail[0].Text) {
		t.Errorf("tail is not valid UTF-8: %q", tail[0].Text)
	}
	if head.Text+tail[0].Text != text {
		t.Error("split lost or duplicated text")
	}
}

func TestAssemblerFlushDiscardsShortBuffer(t *testing.T) {
	a := newTestAssembler()

	a.OnSegment(finalSeg(0, 400, "hm okay"))
	if out := a.Flush(); out != nil {
		t.Fatalf("short buffer survived flush: %v", out)
	}
	if out := a.Flush(); out != nil {
		t.Fatalf("second flush emitted: %v", out)
	}
}

func TestAssemblerFlushIncludesProvisional(t *testing.T) {
	a := newTestAssembler()

	a.OnSegment(finalSeg(0, 1000, "well I think"))
	a.OnSegment(transcribe.Segment{StartMS: 1100, EndMS: 2000, Text: "we should wait", Final: false})

	out := a.Flush()
	if len(out) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(out))
	}
	if out[0].Text != "well I think we should wait" {
		t.Errorf("unexpected text %q", out[0].Text)
	}
	if out[0].EndMS != 2000 {
		t.Errorf("provisional end ignored: %d", out[0].EndMS)
	}
}

func TestAssemblerProvisionalSupersededByFinal(t *testing.T) {
	a := newTestAssembler()

	a.OnSegment(transcribe.Segment{StartMS: 0, EndMS: 900, Text: "I fell unheard", Final: false})
	out := a.OnSegment(finalSeg(0, 2000, "I feel unheard when you interrupt me."))
	if len(out) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(out))
	}
	if strings.Contains(out[0].Text, "fell") {
		t.Errorf("provisional text leaked into final sentence: %q", out[0].Text)
	}
}

func TestAssemblerShortPauseDoesNotSplit(t *testing.T) {
	a := newTestAssembler()

	a.OnSegment(finalSeg(0, 1000, "I was going to mention"))
	if out := a.OnPause(vad.Pause{DurationMS: 300}, 1000); len(out) != 0 {
		t.Fatalf("short pause split the sentence: %v", out)
	}
	out := a.OnSegment(finalSeg(1400, 2400, "the budget review as well."))
	if len(out) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(out))
	}
	if out[0].Text != "I was going to mention the budget review as well." {
		t.Errorf("unexpected text %q", out[0].Text)
	}
}
