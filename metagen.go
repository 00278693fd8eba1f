// Package metagen provides a high-level façade over the orchestra registry,
// team builders and the session coordinator. Most applications interact with
// this package by:
//  1. Creating a MetaGen via New() (optionally overriding stores and models)
//  2. Listing or building orchestras (List, Describe, Build)
//  3. Running them (Run) and reading the outcome
//
// The façade delegates orchestration to runner.Runner and engine.Coordinator.
// Without overrides it persists orchestras and outcomes in SQLite at
// Config.DBPath and exports files below Config.ArtifactDir.
package metagen

import (
	"context"
	"errors"
	"io"

	"github.com/andishehs/MetaGen/agent"
	"github.com/andishehs/MetaGen/artifact"
	"github.com/andishehs/MetaGen/builder"
	"github.com/andishehs/MetaGen/config"
	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/engine"
	"github.com/andishehs/MetaGen/logging"
	"github.com/andishehs/MetaGen/model"
	"github.com/andishehs/MetaGen/registry"
	"github.com/andishehs/MetaGen/runner"
)

// Options configures the MetaGen instance.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config

	// Stores. The registry defaults to SQLite at Config.DBPath. Outcomes go
	// to the registry when it is also a core.OutcomeStore and to an
	// in-memory archive otherwise. Artifacts default to a FileStore at
	// Config.ArtifactDir.
	Registry  core.Registry
	Outcomes  core.OutcomeStore
	Artifacts core.ArtifactStore

	// Models overrides model construction per provider name.
	Models map[string]model.Model

	// Terminal used by human agents.
	Input  io.Reader
	Output io.Writer

	// Logger enables structured logging of rounds, retries and outcomes.
	// Nil disables logging.
	Logger *logging.StructuredLogger
}

// MetaGen is the high-level façade aggregating the runner and its services.
type MetaGen struct {
	cfg     *config.Config
	factory *agent.Factory
	runner  *runner.Runner
	closers []io.Closer
}

// New creates a MetaGen instance. It fails only when the default SQLite
// registry cannot be opened.
func New(optFns ...func(o *Options)) (*MetaGen, error) {
	var opts Options

	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	var logger logging.Logger = logging.NoOpLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}

	m := &MetaGen{cfg: cfg}

	if opts.Registry == nil {
		store, err := registry.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, store)
		opts.Registry = store
	}
	if opts.Outcomes == nil {
		if store, ok := opts.Registry.(core.OutcomeStore); ok {
			opts.Outcomes = store
		}
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.NewFileStore(cfg.ArtifactDir)
	}

	m.factory = agent.NewFactory(func(o *agent.FactoryOptions) {
		o.Provider = cfg.Provider
		o.Model = cfg.Model
		o.Temperature = cfg.Temperature
		o.OpenAIKey = cfg.OpenAIAPIKey
		o.AnthropicKey = cfg.AnthropicAPIKey
		o.RateLimit = cfg.RateLimit
		o.Burst = cfg.Burst
		o.BreakerFailures = cfg.Breaker.Failures
		o.BreakerTimeout = cfg.Breaker.Timeout
		o.Models = opts.Models
		if opts.Input != nil {
			o.Input = opts.Input
		}
		if opts.Output != nil {
			o.Output = opts.Output
		}
		o.Logger = logger
	})

	coord := engine.New(func(o *engine.Options) {
		o.Config = engine.Config{
			CallTimeout:        cfg.CallTimeout,
			RetryBudget:        cfg.RetryBudget,
			RetryDelay:         cfg.RetryDelay,
			MaxCapabilityCalls: cfg.MaxCapabilityCalls,
		}
		o.Logger = logger
	})
	if opts.Logger != nil {
		engine.Observe(coord.Callbacks(), opts.Logger.WithComponent("engine"))
	}

	m.runner = runner.New(opts.Registry, m.factory, func(o *runner.Options) {
		o.Coordinator = coord
		o.Designer = m.designer(logger)
		o.Outcomes = opts.Outcomes
		o.Artifacts = opts.Artifacts
		o.MaxRounds = cfg.MaxRounds
		o.TerminationMarker = cfg.TerminationMarker
		o.Kickoff = cfg.Kickoff
		o.Logger = logger
	})

	return m, nil
}

func (m *MetaGen) designer(logger logging.Logger) builder.Designer {
	if !m.cfg.UseModelBuilder() {
		return builder.NewTemplateBuilder(m.factory, func(o *builder.TemplateOptions) {
			o.MaxRounds = m.cfg.MaxRounds
			o.TerminationMarker = m.cfg.TerminationMarker
		})
	}

	temperature := m.cfg.Temperature
	llm := m.factory.Model(agent.Spec{Provider: m.cfg.Provider, Model: m.cfg.Model})
	return builder.NewModelBuilder(llm, m.factory, func(o *builder.ModelOptions) {
		o.TerminationMarker = m.cfg.TerminationMarker
		o.DefaultLLM = &builder.LLMConfig{
			Provider:    m.cfg.Provider,
			Model:       m.cfg.Model,
			Temperature: &temperature,
		}
		o.Logger = logger
	})
}

// Config returns the effective configuration.
func (m *MetaGen) Config() *config.Config { return m.cfg }

// Callbacks exposes the coordinator's lifecycle hooks, for example to print
// turns as they happen.
func (m *MetaGen) Callbacks() *engine.CallbackManager { return m.runner.Coordinator().Callbacks() }

// List returns the stored orchestra names.
func (m *MetaGen) List(ctx context.Context) ([]string, error) { return m.runner.List(ctx) }

// Describe loads one orchestra.
func (m *MetaGen) Describe(ctx context.Context, name string) (*core.Orchestra, error) {
	return m.runner.Describe(ctx, name)
}

// Run executes the named orchestra once.
func (m *MetaGen) Run(ctx context.Context, name string, optFns ...func(o *runner.RunOptions)) (*runner.Result, error) {
	return m.runner.Run(ctx, name, optFns...)
}

// Build designs and stores a new orchestra.
func (m *MetaGen) Build(ctx context.Context, name, description string) (*core.Orchestra, error) {
	return m.runner.Build(ctx, name, description)
}

// Outcomes lists the persisted sessions of an orchestra.
func (m *MetaGen) Outcomes(ctx context.Context, name string) ([]core.OutcomeRecord, error) {
	return m.runner.Outcomes(ctx, name)
}

// Cancel stops a running session.
func (m *MetaGen) Cancel(sessionID string) error { return m.runner.Cancel(sessionID) }

// Close releases the stores opened by New.
func (m *MetaGen) Close() error {
	var errs []error
	for _, c := range m.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
