package sentence

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/skillsenselab/speakerline/logger"
	"github.com/skillsenselab/speakerline/transcribe"
	"github.com/skillsenselab/speakerline/vad"
)

// AssemblerConfig holds the sentence split thresholds.
type AssemblerConfig struct {
	// MinChars is the shortest sentence punctuation may close.
	MinChars int
	// MaxChars forces a split regardless of punctuation.
	MaxChars int
	// PauseSplit is the silence that closes a sentence (the "obvious
	// pause" threshold).
	PauseSplit time.Duration
	// MaxSentence bounds the open span's duration.
	MaxSentence time.Duration
	// JitterHold is how long near-simultaneous pause and segment events
	// are considered together before acting on either alone.
	JitterHold time.Duration
}

// ApplyDefaults fills zero fields with the standard thresholds.
func (c *AssemblerConfig) ApplyDefaults() {
	if c.MinChars == 0 {
		c.MinChars = 12
	}
	if c.MaxChars == 0 {
		c.MaxChars = 220
	}
	if c.PauseSplit == 0 {
		c.PauseSplit = 600 * time.Millisecond
	}
	if c.MaxSentence == 0 {
		c.MaxSentence = 8 * time.Second
	}
	if c.JitterHold == 0 {
		c.JitterHold = 300 * time.Millisecond
	}
}

// joint marks where one committed segment ended inside the open text,
// so forced splits can prefer natural boundaries.
type joint struct {
	ms  int64
	off int
}

// Assembler maintains the single open sentence buffer for one stream.
// Not safe for concurrent use; the session runs it on one worker.
type Assembler struct {
	cfg      AssemblerConfig
	streamID string
	log      *logger.Logger

	open      bool
	text      strings.Builder
	startMS   int64
	endMS     int64
	splitFrom  string
	joints     []joint
	pauseMarks []int64 // stream ms of short pauses inside the open span

	// pauseAtMS is the start of the first obvious pause observed at or
	// after the open span began; -1 when none.
	pauseAtMS int64
	// holdUntilMS defers pause-finalization to let a near-simultaneous
	// segment join the closing sentence.
	holdUntilMS int64

	provisional    string
	provisionalEnd int64
}

// NewAssembler creates the assembler for one stream.
func NewAssembler(streamID string, cfg AssemblerConfig) *Assembler {
	cfg.ApplyDefaults()
	return &Assembler{
		cfg:       cfg,
		streamID:  streamID,
		log:       logger.Get("assembler").WithStream(streamID),
		pauseAtMS: -1,
	}
}

// OnSegment consumes one transcript segment and returns any sentences it
// finalized. Non-final segments only extend the provisional tail; they
// are superseded by the engine's final output for the same audio.
func (a *Assembler) OnSegment(seg transcribe.Segment) []Sentence {
	var out []Sentence

	// Text arriving after an observed obvious pause belongs to the next
	// sentence: close the current one first, at the pause.
	if a.open && a.pauseAtMS >= 0 && seg.StartMS >= a.pauseAtMS {
		out = append(out, a.finalize()...)
	}

	if !seg.Final {
		a.provisional = seg.Text
		a.provisionalEnd = seg.EndMS
		return out
	}
	a.provisional = ""

	if !a.open {
		a.open = true
		a.startMS = seg.StartMS
		a.endMS = seg.EndMS
		a.text.Reset()
		a.text.WriteString(seg.Text)
	} else {
		a.text.WriteString(" ")
		a.text.WriteString(seg.Text)
		if seg.EndMS > a.endMS {
			a.endMS = seg.EndMS
		}
	}
	a.joints = append(a.joints, joint{ms: seg.EndMS, off: a.text.Len()})

	out = append(out, a.evaluate(seg.EndMS)...)
	return out
}

// OnPause consumes one pause event and returns any sentences it
// finalized. Only obvious pauses split; shorter ones are recorded as
// potential forced-split boundaries.
func (a *Assembler) OnPause(p vad.Pause, pauseStartMS int64) []Sentence {
	if !a.open {
		return nil
	}
	if pauseStartMS < a.startMS {
		return nil
	}
	if p.DurationMS < a.cfg.PauseSplit.Milliseconds() {
		// Not a sentence break on its own, but a natural boundary for a
		// later forced split.
		a.pauseMarks = append(a.pauseMarks, pauseStartMS)
		return nil
	}
	if a.pauseAtMS < 0 || pauseStartMS < a.pauseAtMS {
		a.pauseAtMS = pauseStartMS
	}
	if a.holdUntilMS == 0 {
		a.holdUntilMS = pauseStartMS + p.DurationMS + a.cfg.JitterHold.Milliseconds()
	}
	// The jitter hold gives a trailing segment a chance to join, but an
	// over-length or over-duration buffer must not wait.
	return a.evaluate(pauseStartMS)
}

// Tick advances the assembler's notion of stream time, expiring jitter
// holds and the maximum sentence duration. nowMS is the current stream
// position in milliseconds.
func (a *Assembler) Tick(nowMS int64) []Sentence {
	if !a.open {
		return nil
	}
	if a.pauseAtMS >= 0 && a.holdUntilMS > 0 && nowMS >= a.holdUntilMS {
		return a.finalize()
	}
	if nowMS-a.startMS >= a.cfg.MaxSentence.Milliseconds() {
		return a.evaluate(nowMS)
	}
	return nil
}

// Flush force-finalizes the open buffer at teardown. Buffers shorter
// than MinChars are discarded.
func (a *Assembler) Flush() []Sentence {
	if !a.open {
		return nil
	}
	if a.provisional != "" {
		a.text.WriteString(" ")
		a.text.WriteString(a.provisional)
		if a.provisionalEnd > a.endMS {
			a.endMS = a.provisionalEnd
		}
		a.provisional = ""
	}
	if a.text.Len() < a.cfg.MinChars {
		a.log.Debug("discarded short open buffer at teardown", logger.Fields("chars", a.text.Len()))
		a.reset()
		return nil
	}
	return a.finalize()
}

// evaluate applies the finalization rules in strict priority order.
func (a *Assembler) evaluate(nowMS int64) []Sentence {
	text := a.text.String()

	// 1. Strong punctuation with enough text.
	if endsWithStrongPunct(text) && len(text) >= a.cfg.MinChars {
		return a.finalize()
	}
	// 2. Obvious pause inside the open span.
	if a.pauseAtMS >= 0 && (a.holdUntilMS == 0 || nowMS >= a.holdUntilMS) {
		return a.finalize()
	}
	// 3. Maximum sentence duration.
	if a.endMS-a.startMS >= a.cfg.MaxSentence.Milliseconds() {
		return a.finalize()
	}
	// 4. Maximum length: forced split.
	if len(text) >= a.cfg.MaxChars {
		return a.forceSplit()
	}
	return nil
}

// finalize emits the whole open buffer as one sentence.
func (a *Assembler) finalize() []Sentence {
	text := strings.TrimSpace(a.text.String())
	if text == "" {
		a.reset()
		return nil
	}
	endMS := a.endMS
	if a.pauseAtMS >= 0 && a.pauseAtMS < endMS {
		endMS = a.pauseAtMS
	}
	if endMS <= a.startMS {
		endMS = a.endMS
	}
	sn := Sentence{
		ID:        uuid.NewString(),
		StreamID:  a.streamID,
		StartMS:   a.startMS,
		EndMS:     endMS,
		Text:      text,
		SplitFrom: a.splitFrom,
	}
	a.reset()
	return []Sentence{sn}
}

// forceSplit breaks the open buffer at the best boundary at or before
// MaxChars and keeps the remainder as the new open sentence.
func (a *Assembler) forceSplit() []Sentence {
	text := a.text.String()
	breakAt := a.chooseBreak(text)
	head := strings.TrimSpace(text[:breakAt])
	tail := strings.TrimSpace(text[breakAt:])
	if head == "" {
		return a.finalize()
	}

	breakMS := a.interpolateMS(len(text), breakAt)
	sn := Sentence{
		ID:        uuid.NewString(),
		StreamID:  a.streamID,
		StartMS:   a.startMS,
		EndMS:     breakMS,
		Text:      head,
		SplitFrom: a.splitFrom,
	}

	if tail == "" {
		a.reset()
		return []Sentence{sn}
	}

	// Remainder re-opens, correlated to the sentence it split from.
	endMS := a.endMS
	a.reset()
	a.open = true
	a.text.WriteString(tail)
	a.startMS = breakMS
	a.endMS = endMS
	a.splitFrom = sn.ID
	return []Sentence{sn}
}

// chooseBreak picks the split offset: a pause-aligned segment joint,
// then the nearest soft punctuation, then the nearest whitespace, all at
// or before MaxChars. Falls back to a hard cut.
func (a *Assembler) chooseBreak(text string) int {
	limit := a.cfg.MaxChars
	if limit > len(text) {
		limit = len(text)
	}

	// (a) A pause boundary inside the span.
	best := -1
	for _, ms := range a.pauseMarks {
		off := a.offsetAtMS(len(text), ms)
		if off > 0 && off <= limit && off > best {
			best = off
		}
	}
	if best > 0 {
		return best
	}
	// (b) Soft punctuation nearest the limit.
	if i := lastIndexAnyBefore(text, ",;:", limit); i > 0 {
		return i + 1
	}
	// (c) Whitespace nearest the limit.
	if i := strings.LastIndexByte(text[:limit], ' '); i > 0 {
		return i
	}
	// Hard cut, backed off so multi-byte text never splits mid-rune.
	for limit > 0 && limit < len(text) && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return limit
}

// offsetAtMS maps a stream time to a character offset, snapping to the
// nearest committed segment joint when one is close, else interpolating.
func (a *Assembler) offsetAtMS(textLen int, ms int64) int {
	for _, j := range a.joints {
		if j.ms >= ms-50 && j.ms <= ms+50 {
			return j.off
		}
	}
	span := a.endMS - a.startMS
	if span <= 0 || textLen == 0 {
		return 0
	}
	off := int(int64(textLen) * (ms - a.startMS) / span)
	// Never split mid-word from interpolation alone.
	if off > 0 && off < textLen {
		if i := strings.LastIndexByte(a.text.String()[:off], ' '); i > 0 {
			return i
		}
	}
	return off
}

// interpolateMS maps a character offset to a stream time, preferring an
// exact segment joint and falling back to linear interpolation.
func (a *Assembler) interpolateMS(textLen, off int) int64 {
	for _, j := range a.joints {
		if j.off == off {
			return j.ms
		}
	}
	if textLen == 0 {
		return a.endMS
	}
	span := a.endMS - a.startMS
	return a.startMS + span*int64(off)/int64(textLen)
}

func (a *Assembler) reset() {
	a.open = false
	a.text.Reset()
	a.startMS = 0
	a.endMS = 0
	a.splitFrom = ""
	a.joints = nil
	a.pauseMarks = nil
	a.pauseAtMS = -1
	a.holdUntilMS = 0
	a.provisional = ""
	a.provisionalEnd = 0
}

func endsWithStrongPunct(s string) bool {
	s = strings.TrimRight(s, " ")
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// lastIndexAnyBefore returns the last index of any byte of chars in
// s[:limit], or -1.
func lastIndexAnyBefore(s, chars string, limit int) int {
	if limit > len(s) {
		limit = len(s)
	}
	return strings.LastIndexAny(s[:limit], chars)
}
