package main

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/askdoc/internal/audio"
	"github.com/kailas-cloud/askdoc/internal/config"
	dbRedis "github.com/kailas-cloud/askdoc/internal/db/redis"
	"github.com/kailas-cloud/askdoc/internal/domain"
	logpkg "github.com/kailas-cloud/askdoc/internal/logger"
	"github.com/kailas-cloud/askdoc/internal/metrics"
	"github.com/kailas-cloud/askdoc/internal/repository/chunk"
	"github.com/kailas-cloud/askdoc/internal/repository/embcache"
	"github.com/kailas-cloud/askdoc/internal/repository/memory"
	openaiTransport "github.com/kailas-cloud/askdoc/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/askdoc/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/askdoc/internal/usecase/health"
	voiceuc "github.com/kailas-cloud/askdoc/internal/usecase/voice"
)

//go:embed persona.txt
var defaultPersona string

const embeddingProvider = "openai"

// app holds what every command needs: configuration, a logger and the resources to release.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	closers []func()
}

func newApp() (*app, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if documentPath != "" {
		cfg.Document.Path = documentPath
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.Register()

	return &app{env: env, cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// openCollection returns the configured chunk store. The redis store is also
// returned for the embedding cache and the health check; it is nil for the
// in-memory driver.
func (a *app) openCollection(ctx context.Context) (domain.Collection, *dbRedis.Store, error) {
	cc := a.cfg.Collection
	switch cc.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cc.Addrs, Password: cc.Password})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, store.Close)

		if err := store.WaitForReady(ctx, time.Duration(cc.ReadinessTimeout)*time.Second); err != nil {
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		a.logger.Info("Connected to redis", zap.Strings("addrs", cc.Addrs))

		repo := chunk.New(store, chunk.Options{
			KeyPrefix:       cc.KeyPrefix,
			Collection:      cc.Name,
			Dimensions:      a.cfg.Embedding.Dimensions,
			HNSWM:           cc.HNSWM,
			HNSWEFConstruct: cc.HNSWEFConstruct,
		})
		return repo, store, nil
	default:
		return memory.New(), nil, nil
	}
}

func (a *app) newEmbedder() *openaiTransport.Embedder {
	ec := a.cfg.Embedding
	return openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   embeddingProvider,
		Logger:     a.logger,
	})
}

// buildEmbedder creates the embedding pipeline: base -> cache -> instrumented.
// store is nil unless the redis driver is in use.
func (a *app) buildEmbedder(base domain.Embedder, store *dbRedis.Store) domain.Embedder {
	ec := a.cfg.Embedding

	emb := base
	if ec.Cache && store != nil {
		emb = embcache.New(emb, store, a.cfg.Collection.KeyPrefix, ec.Model, metrics.EmbeddingCacheTotal, a.logger)
		a.logger.Info("Embedding cache enabled")
	}

	// A nil *rate.Limiter must not reach the Limiter interface.
	var limiter embeddinguc.Limiter
	if ec.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ec.RequestsPerSecond), 1)
	}

	return embeddinguc.NewInstrumentedEmbedder(emb, embeddingProvider, ec.Model, ec.BatchSize, limiter, a.logger)
}

func (a *app) newVoice() *voiceuc.Service {
	vc := a.cfg.Voice
	recorder := &audio.CommandRecorder{
		Command:    vc.Recorder,
		Args:       vc.RecorderArgs,
		Device:     vc.Device,
		SampleRate: vc.SampleRate,
	}
	mic := audio.NewMicrophone(recorder, audio.ListenerConfig{
		SampleRate:  vc.SampleRate,
		EnergyRatio: vc.EnergyRatio,
		MinEnergy:   vc.MinEnergy,
		Pause:       vc.Pause(),
	}, a.logger)
	stt := openaiTransport.NewTranscriber(&openaiTransport.TranscriberConfig{
		APIKey:   a.cfg.Generation.APIKey,
		BaseURL:  a.cfg.Generation.BaseURL,
		Model:    vc.TranscriptionModel,
		Language: vc.Language,
	})
	return voiceuc.New(mic, stt, voiceuc.Settings{
		Calibration: vc.Calibration(),
		Timeout:     vc.Timeout(),
		PhraseLimit: vc.PhraseLimit(),
	})
}

// newHealth builds the health service. Passing a nil *Store as an interface
// would make a non-nil pinger, so the store is only set when present.
func newHealth(store *dbRedis.Store, api healthuc.APIChecker) *healthuc.Service {
	var pinger healthuc.CollectionPinger
	if store != nil {
		pinger = store
	}
	return healthuc.New(pinger, api)
}
