package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/abhisek/adaptiq/internal/attempt"
	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/checkpoint"
	"github.com/abhisek/adaptiq/internal/config"
	"github.com/abhisek/adaptiq/internal/curriculum"
	"github.com/abhisek/adaptiq/internal/itemgen"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/server"
	"github.com/abhisek/adaptiq/internal/store"
)

// App holds every wired component. Build it with New and release it with
// Close.
type App struct {
	Config      config.Config
	Log         *logger.Logger
	Store       *store.Store
	Checkpoints checkpoint.Store
	Gate        *curriculum.Gate
	Engine      *attempt.Engine
	Sweeper     *checkpoint.Sweeper
	Importer    *bank.Importer

	// Generator is nil when no LLM provider is configured; attempts are
	// then served from the bank only.
	Generator itemgen.Generator
	Embedder  llm.Embedder

	closers []io.Closer
}

// New opens the store and checkpoint backend and builds the engine from
// cfg. An empty sqlite DSN resolves to the default database path.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dsn := cfg.Store.DSN
	if dsn == "" && cfg.Store.Driver == "sqlite" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		dsn = p
	}

	st, err := store.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &App{Config: cfg, Log: log, Store: st, closers: []io.Closer{st}}

	cps, closer, err := checkpoint.Open(ctx, cfg.Store.Checkpointer, cfg.Store.RedisURL, st)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open checkpointer: %w", err)
	}
	a.Checkpoints = cps
	a.closers = append(a.closers, closer)

	eventRepo := st.EventRepo()
	if err := cfg.LLM.Validate(); err != nil {
		log.Warn("LLM provider not configured, serving from the item bank only", "error", err)
	} else {
		provider, err := llm.NewProvider(ctx, cfg.LLM, eventRepo, log)
		if err != nil {
			log.Warn("LLM provider unavailable, serving from the item bank only", "error", err)
		} else {
			a.Generator = itemgen.New(provider, itemgen.DefaultConfig())
		}
	}

	a.Embedder, err = llm.NewEmbedder(ctx, cfg.Embed, cfg.LLM.Retry, eventRepo, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	if a.Embedder == nil {
		log.Warn("no embedding provider configured, items are stored without vectors and skip the similarity gate")
	}

	bcfg := BankConfig(cfg.Engine)
	itemRepo := st.ItemRepo()
	sources := map[bank.Policy]bank.Source{
		bank.PolicyFixed:    bank.NewFixedPolicy(itemRepo, a.Generator, a.Embedder, bcfg, log),
		bank.PolicyAdaptive: bank.NewAdaptivePolicy(itemRepo, a.Generator, a.Embedder, bcfg, log),
	}

	progress := st.ProgressRepo()
	a.Gate = curriculum.NewGate(st.CurriculumRepo(), progress)
	recorder := attempt.NewRecorder(st.TranscriptRepo(), progress, log)
	a.Engine = attempt.NewEngine(a.Gate, sources, cps, recorder, EngineConfig(cfg.Engine), log)
	a.Sweeper = checkpoint.NewSweeper(cps, attempt.TerminalPhases(), log)
	a.Importer = bank.NewImporter(itemRepo, a.Embedder, bcfg, log)
	return a, nil
}

// BankConfig projects the engine settings onto the item sources.
func BankConfig(e config.EngineConfig) bank.Config {
	return bank.Config{
		HardThreshold:              e.CosineHard,
		SoftThreshold:              e.CosineSoft,
		AdaptiveCandidates:         e.AdaptiveCandidates,
		FixedCandidateFactor:       e.FixedCandidateFactor,
		MinGenerate:                e.MinGenerate,
		AdaptiveGenerationFallback: e.AdaptiveGenerationFallback,
	}
}

// EngineConfig projects the engine settings onto the attempt engine.
func EngineConfig(e config.EngineConfig) attempt.Config {
	return attempt.Config{
		QuizLength: e.QuizLength,
		InitTheta:  e.InitTheta,
		ThetaLR:    e.ThetaLR,
		PassMark:   e.PassMark,
	}
}

// Services returns the terminal client's view of the app.
func (a *App) Services(learner string, policy bank.Policy) *screen.Services {
	return &screen.Services{
		Engine:      a.Engine,
		Gate:        a.Gate,
		Curriculum:  a.Store.CurriculumRepo(),
		Progress:    a.Store.ProgressRepo(),
		Transcripts: a.Store.TranscriptRepo(),
		Learner:     learner,
		Policy:      policy,
	}
}

// ServerDeps returns the HTTP transport's dependencies.
func (a *App) ServerDeps() server.Deps {
	return server.Deps{
		Engine:      a.Engine,
		Gate:        a.Gate,
		Progress:    a.Store.ProgressRepo(),
		Transcripts: a.Store.TranscriptRepo(),
		Log:         a.Log,
		CORSOrigins: a.Config.Server.CORSOrigins,
	}
}

// SeedDefaultCurriculum installs the built-in curriculum when the store
// has none.
func (a *App) SeedDefaultCurriculum(ctx context.Context) (bool, error) {
	repo := a.Store.CurriculumRepo()
	topics, err := repo.Topics(ctx)
	if err != nil {
		return false, fmt.Errorf("read curriculum: %w", err)
	}
	if len(topics) > 0 {
		return false, nil
	}
	t, e := curriculum.CorporateFinance().Records()
	if err := repo.Seed(ctx, t, e); err != nil {
		return false, fmt.Errorf("seed curriculum: %w", err)
	}
	a.Log.Info("seeded built-in curriculum", "topics", len(t), "edges", len(e))
	return true, nil
}

// Close releases the checkpoint backend and the store, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
