package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/speakerline/api"
	"github.com/skillsenselab/speakerline/config"
	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/diarize/pyannote"
	"github.com/skillsenselab/speakerline/events"
	"github.com/skillsenselab/speakerline/logger"
	"github.com/skillsenselab/speakerline/observability"
	"github.com/skillsenselab/speakerline/provider"
	"github.com/skillsenselab/speakerline/redis"
	"github.com/skillsenselab/speakerline/server"
	"github.com/skillsenselab/speakerline/session"
	"github.com/skillsenselab/speakerline/transcribe"
	"github.com/skillsenselab/speakerline/transcribe/whisper"
	"github.com/skillsenselab/speakerline/version"
	"github.com/skillsenselab/speakerline/voiceid"
	"github.com/skillsenselab/speakerline/voiceid/ecapa"
)

const serviceName = "speakerlined"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config.Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.Get(serviceName)
	log.Info("starting", logger.Fields(
		"version", version.GetShortVersion(),
		"environment", cfg.Environment,
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Enabled {
		shutdown, err := initObservability(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init observability: %w", err)
		}
		defer shutdown()
	}

	metrics, err := observability.NewPipelineMetrics(observability.Meter("pipeline"))
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	var checkers []observability.HealthChecker

	// Voice identity assignments live in Redis when available so stream
	// reconnects keep their speaker identities.
	assignments, redisClient := buildAssignmentStore(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
		checkers = append(checkers, pingChecker{name: "redis", ping: redisClient.Ping})
	}

	diarizer, transcriber, embedder, engineCheckers, err := buildEngines(ctx, cfg, log)
	if err != nil {
		return err
	}
	checkers = append(checkers, engineCheckers...)

	var profiles []voiceid.Profile
	if pf := cfg.Engines.VoiceID.ProfilesFile; pf != "" {
		profiles, err = voiceid.LoadProfiles(pf)
		if err != nil {
			return err
		}
		log.Info("speaker profiles loaded", logger.Fields(
			"file", pf,
			"count", len(profiles),
		))
	}

	hub := events.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	var sink *events.KafkaSink
	if cfg.Kafka.Enabled {
		sink, err = events.NewKafkaSink(cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("init kafka sink: %w", err)
		}
		defer sink.Close()
	}
	emitter := events.NewEmitter(hub, sink, log)

	orch := session.NewOrchestrator(cfg.Session, session.Deps{
		Diarizer:    diarizer,
		Transcriber: transcriber,
		Embedder:    embedder,
		Profiles:    profiles,
		Assignments: assignments,
		Emitter:     emitter,
		Metrics:     metrics,
	}, log)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	api.New(orch, hub, serviceName, checkers, log).Register(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	orch.Close(shutdownCtx)
	return srv.Stop(shutdownCtx)
}

func initObservability(ctx context.Context, cfg config.Config) (func(), error) {
	mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: version.GetVersionInfo().Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Observability.Endpoint,
		Insecure:       cfg.Observability.Insecure,
		Interval:       cfg.Observability.MetricInterval,
	})
	if err != nil {
		return nil, err
	}

	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: version.GetVersionInfo().Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Observability.Endpoint,
		Insecure:       cfg.Observability.Insecure,
		SampleRate:     cfg.Observability.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
	}, nil
}

// buildAssignmentStore prefers Redis and falls back to process memory.
func buildAssignmentStore(ctx context.Context, cfg config.Config, log *logger.Logger) (voiceid.AssignmentStore, *redis.Client) {
	if !cfg.Redis.Enabled {
		return voiceid.NewMemoryStore(), nil
	}

	client, err := redis.New(cfg.Redis, log)
	if err != nil {
		log.Warn("Redis unavailable, voice identities are per-process only",
			logger.ErrorFields("connect", err))
		return voiceid.NewMemoryStore(), nil
	}
	return redis.NewTypedStore[voiceid.Assignment](client, "voiceid"), client
}

// buildEngines constructs the streaming engine providers through the
// registries so alternative backends stay pluggable.
func buildEngines(ctx context.Context, cfg config.Config, log *logger.Logger) (diarize.Provider, transcribe.Provider, voiceid.Provider, []observability.HealthChecker, error) {
	diarizers := provider.NewRegistry[diarize.Provider]()
	diarizers.Set("pyannote", pyannote.NewProvider(cfg.Engines.Diarize.Pyannote))
	diarizers.Set("mock", &diarize.MockProvider{Available: true})

	transcribers := provider.NewRegistry[transcribe.Provider]()
	transcribers.Set("whisper", whisper.NewProvider(languageDefaulted(cfg)))
	transcribers.Set("mock", &transcribe.MockProvider{Available: true})

	embedders := provider.NewRegistry[voiceid.Provider]()
	embedders.Set("ecapa", ecapa.NewProvider(cfg.Engines.VoiceID.Ecapa))
	embedders.Set("mock", &voiceid.MockProvider{Available: true})

	diarizer, err := selectEngine(ctx, diarizers, "diarize", cfg.Engines.Diarize.Provider, log)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	transcriber, err := selectEngine(ctx, transcribers, "transcribe", cfg.Engines.Transcribe.Provider, log)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	var embedder voiceid.Provider
	if cfg.Engines.VoiceID.Provider != "none" {
		embedder, err = selectEngine(ctx, embedders, "voiceid", cfg.Engines.VoiceID.Provider, log)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}

	checkers := []observability.HealthChecker{
		availabilityChecker{name: "diarize:" + diarizer.Name(), available: diarizer.IsAvailable},
		availabilityChecker{name: "transcribe:" + transcriber.Name(), available: transcriber.IsAvailable},
	}
	if embedder != nil {
		checkers = append(checkers, availabilityChecker{name: "voiceid:" + embedder.Name(), available: embedder.IsAvailable})
	}
	return diarizer, transcriber, embedder, checkers, nil
}

// selectEngine resolves the configured provider, falling back to the
// mock when the configured sidecar is unreachable at startup so the
// service still comes up. The fallback is warn-logged; an unknown name
// is still a config error.
func selectEngine[T provider.Provider](ctx context.Context, reg *provider.Registry[T], kind, name string, log *logger.Logger) (T, error) {
	var zero T
	if _, ok := reg.Get(name); !ok {
		return zero, fmt.Errorf("unknown %s provider %q", kind, name)
	}
	sel := &provider.PrioritySelector[T]{Priority: []string{name, "mock"}}
	p, err := sel.Select(ctx, reg.Instances())
	if err != nil {
		return zero, fmt.Errorf("no available %s provider: %w", kind, err)
	}
	if p.Name() != name {
		log.Warn("configured engine unavailable, running its mock", logger.Fields(
			"engine", kind,
			"configured", name,
			"selected", p.Name(),
		))
	}
	return p, nil
}

func languageDefaulted(cfg config.Config) whisper.Config {
	wc := cfg.Engines.Transcribe.Whisper
	if wc.Language == "" {
		wc.Language = cfg.Session.Language
	}
	return wc
}

// pingChecker adapts a ping func to the HealthChecker interface.
type pingChecker struct {
	name string
	ping func(ctx context.Context) error
}

func (p pingChecker) CheckHealth(ctx context.Context) observability.Health {
	if err := p.ping(ctx); err != nil {
		return observability.Health{Name: p.name, Status: observability.HealthStatusDown, Message: err.Error()}
	}
	return observability.Health{Name: p.name, Status: observability.HealthStatusUp}
}

// availabilityChecker adapts a provider availability probe.
type availabilityChecker struct {
	name      string
	available func(ctx context.Context) bool
}

func (a availabilityChecker) CheckHealth(ctx context.Context) observability.Health {
	if !a.available(ctx) {
		return observability.Health{Name: a.name, Status: observability.HealthStatusDegraded, Message: "sidecar unreachable"}
	}
	return observability.Health{Name: a.name, Status: observability.HealthStatusUp}
}
