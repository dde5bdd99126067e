package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/skillsenselab/speakerline/logger"
)

type assignment struct {
	Identity string `json:"identity,omitempty"`
	Unknown  int    `json:"unknown,omitempty"`
}

func newTestStore(t *testing.T) (*TypedStore[assignment], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	client := NewFromRedisClient(rdb, logger.Get("redis-test"))
	return NewTypedStore[assignment](client, "voiceid"), mr
}

func TestTypedStoreRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "stream-1:spk0", &assignment{Identity: "alice"}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, "stream-1:spk0")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.Identity != "alice" {
		t.Errorf("loaded %+v, want alice", got)
	}

	// Keys carry the configured prefix.
	if !mr.Exists("voiceid:stream-1:spk0") {
		t.Error("prefixed key missing in redis")
	}
}

func TestTypedStoreMissingKey(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Load(context.Background(), "absent")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Errorf("loaded %+v for a missing key", got)
	}
}

func TestTypedStoreTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "k", &assignment{Unknown: 2}, 10*time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(9 * time.Minute)
	if got, _ := store.Load(ctx, "k"); got == nil || got.Unknown != 2 {
		t.Fatalf("entry expired early: %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if got, _ := store.Load(ctx, "k"); got != nil {
		t.Errorf("entry survived past its TTL: %+v", got)
	}
}

func TestTypedStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, "k", &assignment{Identity: "bob"}, 0)
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := store.Load(ctx, "k"); got != nil {
		t.Errorf("deleted entry still loads: %+v", got)
	}
}

func TestTypedStoreCorruptValue(t *testing.T) {
	store, mr := newTestStore(t)

	mr.Set("voiceid:bad", "{not json")
	if _, err := store.Load(context.Background(), "bad"); err == nil {
		t.Error("expected an unmarshal error")
	}
}
