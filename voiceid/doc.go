// Package voiceid resolves engine speaker labels (spk0, spk1, ...) to
// durable identities by matching voice embeddings against enrolled
// profiles.
//
// An Embedder provider computes an embedding over a sentence's audio
// span; the Matcher compares it to the enrolled profiles by cosine
// similarity. A match is accepted only when it clears the similarity
// threshold and leads the runner-up by a margin, otherwise the label
// maps to a stable Unknown_N identity. Assignments are cached in Redis
// with a TTL so reconnecting streams keep their names, with an
// in-process fallback when Redis is disabled.
package voiceid
