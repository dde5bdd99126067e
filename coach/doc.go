// Package coach decides which finalized sentences are safe to hand to
// downstream coaching logic. Real-time nudges act on what someone said,
// so a sentence qualifies only when its speaker attribution is clean
// and confident. The gate is deliberately one-shot: later patches may
// amend a sentence's label, but they never re-trigger a nudge.
package coach
