// Package redis provides a thin Redis client wrapper used to cache
// voice identity assignments across stream reconnects.
//
// It wraps go-redis with speakerline logging and configuration
// conventions. TypedStore layers generic JSON-serialized get/set
// operations with TTL on top of the client:
//
//	store := redis.NewTypedStore[voiceid.Assignment](client, "voiceid")
//	store.Save(ctx, "stream-1:spk0", &assignment, 10*time.Minute)
//
// The engine treats Redis as best-effort: when the component is
// disabled or unreachable, callers fall back to in-memory state.
package redis
