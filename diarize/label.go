package diarize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LabelKind discriminates the label variants.
type LabelKind int

const (
	// KindSpeaker is an engine-assigned speaker index (spk0, spk1, ...).
	KindSpeaker LabelKind = iota
	// KindOverlap marks audio where multiple speakers talk at once.
	KindOverlap
	// KindUncertain marks audio the engine could not attribute.
	KindUncertain
	// KindResolved is a durable identity assigned by voice matching.
	KindResolved
	// KindUnknown is a speaker the voice matcher could not resolve.
	KindUnknown
)

// Label is the tagged speaker label used throughout the pipeline. The
// zero value is spk0; use the constructors.
type Label struct {
	Kind     LabelKind
	Speaker  int    // valid for KindSpeaker
	Identity string // valid for KindResolved
	Unknown  int    // valid for KindUnknown
}

// Speaker returns the label for an engine speaker index.
func Speaker(index int) Label { return Label{Kind: KindSpeaker, Speaker: index} }

// Overlap returns the overlapping-speech label.
func Overlap() Label { return Label{Kind: KindOverlap} }

// Uncertain returns the unattributable-speech label.
func Uncertain() Label { return Label{Kind: KindUncertain} }

// Resolved returns a label carrying a durable identity.
func Resolved(identity string) Label { return Label{Kind: KindResolved, Identity: identity} }

// Unknown returns the label for an unresolvable speaker n.
func Unknown(n int) Label { return Label{Kind: KindUnknown, Unknown: n} }

// Special reports whether the label is Overlap or Uncertain.
func (l Label) Special() bool { return l.Kind == KindOverlap || l.Kind == KindUncertain }

// Resolvable reports whether the label can be mapped to an identity.
func (l Label) Resolvable() bool { return l.Kind == KindSpeaker }

// String renders the wire form: spkN, OVERLAP, UNCERTAIN, the identity,
// or Unknown_N.
func (l Label) String() string {
	switch l.Kind {
	case KindSpeaker:
		return fmt.Sprintf("spk%d", l.Speaker)
	case KindOverlap:
		return "OVERLAP"
	case KindUncertain:
		return "UNCERTAIN"
	case KindResolved:
		return l.Identity
	case KindUnknown:
		return fmt.Sprintf("Unknown_%d", l.Unknown)
	default:
		return "UNCERTAIN"
	}
}

// MarshalJSON renders the label as its wire string.
func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// ParseLabel maps an engine label string to a Label. It accepts the
// pipeline's own forms (spk3, OVERLAP, UNCERTAIN) and common engine
// forms such as SPEAKER_00. Anything unrecognized is Uncertain.
func ParseLabel(s string) Label {
	switch {
	case s == "OVERLAP":
		return Overlap()
	case s == "UNCERTAIN", s == "":
		return Uncertain()
	case strings.HasPrefix(s, "spk"):
		if n, err := strconv.Atoi(s[len("spk"):]); err == nil {
			return Speaker(n)
		}
	case strings.HasPrefix(s, "SPEAKER_"):
		if n, err := strconv.Atoi(s[len("SPEAKER_"):]); err == nil {
			return Speaker(n)
		}
	}
	return Uncertain()
}
