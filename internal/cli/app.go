package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/khanglvm/food-search/internal/cache"
	"github.com/khanglvm/food-search/internal/config"
	"github.com/khanglvm/food-search/internal/engine"
	"github.com/khanglvm/food-search/internal/feedback"
	"github.com/khanglvm/food-search/internal/logger"
	"github.com/khanglvm/food-search/internal/metrics"
	"github.com/khanglvm/food-search/internal/provider"
	"github.com/khanglvm/food-search/internal/search"
	"github.com/khanglvm/food-search/internal/storage"
)

// redisNamespace prefixes every key this tool writes to a shared Redis.
const redisNamespace = "food-search"

// stack is everything a search command needs, wired from config.
type stack struct {
	store     *storage.SQLiteStorage
	sessionKV storage.KV
	recorder  *feedback.Recorder
	registry  *prometheus.Registry
	engine    *engine.Engine
	log       *log.Logger
}

// loadConfig reads the file named by --config (or the search paths) with
// environment overrides, then applies the configured log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	if f := cmd.Flags().Lookup("log-level"); f != nil {
		if err := v.BindPFlag("log.level", f); err != nil {
			return nil, err
		}
	}

	path, _ := cmd.Flags().GetString("config")
	used, err := config.Read(v, path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	logger.Default("config").Debug("configuration loaded", "file", used)
	return cfg, nil
}

// openStore opens the history database. A database that cannot be opened
// leaves the store disabled rather than failing the command.
func openStore(cfg *config.Config) *storage.SQLiteStorage {
	store := storage.NewStorage(cfg.Storage.Path)
	if err := store.Init(); err != nil {
		logger.Default("storage").Warn("history disabled", "path", store.Path(), "err", err)
	}
	return store
}

func newProvider(cfg config.ProviderConfig, l *log.Logger) (provider.Provider, error) {
	var p provider.Provider
	switch cfg.Kind {
	case config.ProviderStatic:
		if cfg.CatalogFile == "" {
			p = provider.Builtin()
			break
		}
		path, err := config.ExpandPath(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		static, err := provider.LoadStatic(path)
		if err != nil {
			return nil, err
		}
		p = static
	case config.ProviderUSDA:
		key := cfg.APIKey
		if key == "" {
			// FoodData Central accepts DEMO_KEY at a low hourly quota.
			key = "DEMO_KEY"
			l.Debug("no provider.api_key set, using DEMO_KEY")
		}
		p = provider.NewUSDA(provider.USDAConfig{
			BaseURL:       cfg.BaseURL,
			APIKey:        key,
			DataType:      cfg.DataType,
			PageSize:      cfg.PageSize,
			Timeout:       cfg.Timeout,
			MaxRetries:    cfg.MaxRetries,
			RatePerSecond: cfg.RatePerSecond,
		}, provider.WithLogger(l))
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}

	if cfg.Expand {
		p = provider.NewExpanding(p, search.Expand, provider.WithLogger(l))
	}
	return p, nil
}

func newSessionKV(ctx context.Context, cfg *config.Config, l *log.Logger) storage.KV {
	if cfg.Session.Backend != config.BackendRedis {
		return storage.NewMemoryKV()
	}
	kv, err := storage.DialRedisKV(ctx, cfg.Storage.RedisURL, redisNamespace)
	if err != nil {
		l.Warn("redis unavailable, using in-memory session cache", "err", err)
		return storage.NewMemoryKV()
	}
	return kv
}

// engineConfig maps the file configuration onto the engine's tunables.
func engineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()

	ec.Usage = cache.UsageConfig{
		Capacity:       cfg.Usage.Capacity,
		Retention:      cfg.Usage.Retention,
		MaxQueries:     cfg.Usage.QueryHistory,
		Limit:          cfg.Usage.LocalLimit,
		MinQueryLength: cfg.Usage.MinQueryLength,
		HistoryBonus:   ec.Usage.HistoryBonus,
		Weights: search.UsageWeights{
			PerUse:       cfg.Usage.UsageWeight,
			RecentBonus:  cfg.Usage.RecentBonus,
			RecentWindow: cfg.Usage.RecentWindow,
		},
	}
	ec.Session = cache.SessionConfig{
		TTL:      cfg.Session.TTL,
		Capacity: cfg.Session.Capacity,
	}
	ec.Merge.MaxResults = cfg.Merge.MaxResults
	ec.FetchLimit = cfg.Provider.PageSize
	return ec
}

// openStack wires storage, provider, feedback and engine from cfg. The
// caller must Close it so queued feedback is flushed.
func openStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	l := logger.For("engine", cfg.Log.Timestamps)

	p, err := newProvider(cfg.Provider, logger.For("provider", cfg.Log.Timestamps))
	if err != nil {
		return nil, err
	}

	store := openStore(cfg)
	m, reg := metrics.NewRegistered()

	rec := feedback.New(store, feedback.Config{
		QueueSize:     cfg.Feedback.QueueSize,
		BatchSize:     cfg.Feedback.BatchSize,
		FlushInterval: cfg.Feedback.FlushInterval,
	}, feedback.WithLogger(logger.For("feedback", cfg.Log.Timestamps)), feedback.WithMetrics(m))

	sessionKV := newSessionKV(ctx, cfg, l)

	e := engine.New(p, store, sessionKV, engineConfig(cfg),
		engine.WithLogger(l),
		engine.WithMetrics(m),
		engine.WithRecorder(rec),
	)

	return &stack{
		store:     store,
		sessionKV: sessionKV,
		recorder:  rec,
		registry:  reg,
		engine:    e,
		log:       l,
	}, nil
}

// Close flushes pending feedback and releases the stores.
func (s *stack) Close() {
	s.recorder.Stop()
	if err := s.sessionKV.Close(); err != nil {
		s.log.Warn("failed to close session store", "err", err)
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("failed to close history", "err", err)
	}
}

// stackFor loads configuration and opens the stack for cmd.
func stackFor(cmd *cobra.Command) (*stack, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openStack(cmd.Context(), cfg)
}

// session opens the session named by --session, or a fresh one. The
// returned func discards a fresh session's cache; a named session is left
// for later commands to reuse.
func (s *stack) session(cmd *cobra.Command) (*engine.Session, func()) {
	user, _ := cmd.Flags().GetString("user")
	id, _ := cmd.Flags().GetString("session")
	if id != "" {
		return s.engine.NewSessionWithID(id, user), func() {}
	}
	sess := s.engine.NewSession(user)
	return sess, func() { sess.Close(context.WithoutCancel(cmd.Context())) }
}
