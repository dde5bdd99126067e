// Package util provides small generic helpers shared across the
// speakerline packages: slice and map operations, size parsing for
// config values, and string cleanup for engine output and env files.
package util
