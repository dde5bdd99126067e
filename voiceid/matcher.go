package voiceid

import (
	"context"
	"fmt"
	"time"

	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/logger"
)

// MatcherConfig holds match acceptance and caching parameters.
type MatcherConfig struct {
	// MatchThreshold is the minimum cosine similarity to accept.
	MatchThreshold float64
	// MatchMargin is the required lead over the runner-up profile.
	MatchMargin float64
	// RelabelPersistence is how many consecutive disagreeing matches it
	// takes to move an already-mapped label to a different identity.
	RelabelPersistence int
	// CacheTTL bounds how long cached assignments survive.
	CacheTTL time.Duration
}

// ApplyDefaults fills zero fields with the standard parameters.
func (c *MatcherConfig) ApplyDefaults() {
	if c.MatchThreshold == 0 {
		c.MatchThreshold = 0.72
	}
	if c.MatchMargin == 0 {
		c.MatchMargin = 0.10
	}
	if c.RelabelPersistence == 0 {
		c.RelabelPersistence = 3
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 10 * time.Minute
	}
}

// Matcher resolves engine speaker labels to durable identities for one
// stream. Special labels pass through untouched. Resolutions are sticky:
// once a label maps to an identity, a different identity must win
// RelabelPersistence times in a row to displace it.
type Matcher struct {
	cfg      MatcherConfig
	streamID string
	embedder Provider
	profiles []Profile
	store    AssignmentStore
	log      *logger.Logger

	assigned   map[diarize.Label]*assignment
	unknownSeq int
}

type assignment struct {
	current    Assignment
	challenger Assignment
	streak     int
}

// NewMatcher creates a matcher for one stream. store may be a Redis
// typed store or a MemoryStore; it must not be nil.
func NewMatcher(streamID string, embedder Provider, profiles []Profile, store AssignmentStore, cfg MatcherConfig, log *logger.Logger) *Matcher {
	cfg.ApplyDefaults()
	return &Matcher{
		cfg:      cfg,
		streamID: streamID,
		embedder: embedder,
		profiles: profiles,
		store:    store,
		log:      log,
		assigned: make(map[diarize.Label]*assignment),
	}
}

// Resolve maps an engine label to its durable identity using the given
// audio span. pcm may be empty, in which case only cached and sticky
// assignments apply.
func (m *Matcher) Resolve(ctx context.Context, label diarize.Label, pcm []byte, sampleRate int) (diarize.Label, error) {
	if !label.Resolvable() {
		return label, nil
	}
	if a, ok := m.assigned[label]; ok {
		candidate, matched := m.matchPCM(ctx, pcm, sampleRate)
		return m.advance(ctx, label, a, candidate, matched)
	}

	// First sighting of this label: reconnecting streams pick their
	// previous assignment back up from the cache.
	if cached, err := m.store.Load(ctx, m.key(label)); err != nil {
		m.log.Warn("voiceid cache load failed", logger.ErrorFields("load", err))
	} else if cached != nil {
		a := &assignment{current: *cached}
		m.assigned[label] = a
		if cached.Unknown > m.unknownSeq {
			m.unknownSeq = cached.Unknown
		}
		return asLabel(a.current), nil
	}

	candidate, ok := m.matchPCM(ctx, pcm, sampleRate)
	if !ok {
		candidate = m.nextUnknown()
	}
	a := &assignment{current: candidate}
	m.assigned[label] = a
	m.save(ctx, label, a.current)
	m.log.Info("voice identity assigned", logger.Fields(
		logger.FieldStream, m.streamID,
		logger.FieldLabel, label.String(),
		"identity", asLabel(a.current).String(),
	))
	return asLabel(a.current), nil
}

// advance applies the persistence rule to an existing assignment.
func (m *Matcher) advance(ctx context.Context, label diarize.Label, a *assignment, candidate Assignment, matched bool) (diarize.Label, error) {
	if !matched || candidate == a.current {
		a.streak = 0
		return asLabel(a.current), nil
	}
	if candidate == a.challenger {
		a.streak++
	} else {
		a.challenger = candidate
		a.streak = 1
	}
	if a.streak < m.cfg.RelabelPersistence {
		return asLabel(a.current), nil
	}
	m.log.Info("voice identity relabeled", logger.Fields(
		logger.FieldStream, m.streamID,
		logger.FieldLabel, label.String(),
		"identity", asLabel(candidate).String(),
		"previous", asLabel(a.current).String(),
	))
	a.current = candidate
	a.challenger = Assignment{}
	a.streak = 0
	m.save(ctx, label, a.current)
	return asLabel(a.current), nil
}

// matchPCM embeds the span and scores it against enrolled profiles.
func (m *Matcher) matchPCM(ctx context.Context, pcm []byte, sampleRate int) (Assignment, bool) {
	if len(pcm) == 0 || m.embedder == nil || len(m.profiles) == 0 {
		return Assignment{}, false
	}
	emb, err := m.embedder.Embed(ctx, Request{PCM: pcm, SampleRate: sampleRate})
	if err != nil {
		m.log.Warn("embedding failed", logger.ErrorFields("embed", err))
		return Assignment{}, false
	}

	best, second := -1.0, -1.0
	var bestID string
	for _, p := range m.profiles {
		sim := Cosine(emb, p.Embedding)
		if sim > best {
			second = best
			best = sim
			bestID = p.Identity
		} else if sim > second {
			second = sim
		}
	}
	if best < m.cfg.MatchThreshold {
		return Assignment{}, false
	}
	if second >= 0 && best-second < m.cfg.MatchMargin {
		return Assignment{}, false
	}
	return Assignment{Identity: bestID}, true
}

func (m *Matcher) nextUnknown() Assignment {
	m.unknownSeq++
	return Assignment{Unknown: m.unknownSeq}
}

func (m *Matcher) key(label diarize.Label) string {
	return fmt.Sprintf("%s:%s", m.streamID, label.String())
}

func (m *Matcher) save(ctx context.Context, label diarize.Label, a Assignment) {
	if err := m.store.Save(ctx, m.key(label), &a, m.cfg.CacheTTL); err != nil {
		m.log.Warn("voiceid cache save failed", logger.ErrorFields("save", err))
	}
}

func asLabel(a Assignment) diarize.Label {
	if a.Identity != "" {
		return diarize.Resolved(a.Identity)
	}
	return diarize.Unknown(a.Unknown)
}
