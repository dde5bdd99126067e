package events

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/speakerline/logger"
)

func TestServeSSE(t *testing.T) {
	log := logger.Get("sse-test")
	hub := NewHub(log)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(hub, log, w, r, "stream-1")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}

	// The hello frame announces the subscription.
	var hello struct {
		Type     string `json:"type"`
		ClientID string `json:"client_id"`
		StreamID string `json:"stream_id"`
	}
	if err := json.Unmarshal([]byte(readEvent()), &hello); err != nil {
		t.Fatalf("decode hello: %v", err)
	}
	if hello.Type != "connected" || hello.StreamID != "stream-1" || hello.ClientID == "" {
		t.Errorf("hello = %+v", hello)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount("stream-1") != 1 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(time.Millisecond)
	}

	hub.Broadcast("stream-1", []byte(`{"type":"ui.sentence"}`))
	if got := readEvent(); got != `{"type":"ui.sentence"}` {
		t.Errorf("event = %q", got)
	}

	// Disconnecting unregisters the subscriber.
	cancel()
	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount("stream-1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never unregistered")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestKafkaConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     KafkaConfig
		wantErr bool
	}{
		{"disabled needs nothing", KafkaConfig{}, false},
		{"enabled without brokers", KafkaConfig{Enabled: true}, true},
		{"enabled with brokers", KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKafkaConfigDefaults(t *testing.T) {
	var cfg KafkaConfig
	cfg.ApplyDefaults()
	if cfg.Topic != "speakerline.sentences" {
		t.Errorf("topic = %q", cfg.Topic)
	}
	if cfg.BatchTimeout != "50ms" || cfg.WriteTimeout != "3s" {
		t.Errorf("timeouts = %q, %q", cfg.BatchTimeout, cfg.WriteTimeout)
	}
}

func TestNewKafkaSinkDisabled(t *testing.T) {
	if _, err := NewKafkaSink(KafkaConfig{}, logger.Get("kafka-test")); err == nil {
		t.Error("expected an error for a disabled sink")
	}
}

func TestKafkaSinkWriterNeverBlocksEmit(t *testing.T) {
	sink, err := NewKafkaSink(KafkaConfig{
		Enabled: true,
		Brokers: []string{"localhost:9092"},
	}, logger.Get("kafka-test"))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	// A degraded broker must never stall the assembly worker, so the
	// writer has to run in async mode.
	if !sink.writer.Async {
		t.Error("writer is synchronous; a slow broker would stall sentence emission")
	}
}
