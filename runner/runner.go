package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/andishehs/MetaGen/agent"
	"github.com/andishehs/MetaGen/artifact"
	"github.com/andishehs/MetaGen/builder"
	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/engine"
	"github.com/andishehs/MetaGen/logging"
	"github.com/andishehs/MetaGen/session"
)

// ErrInvalidOrchestra reports a bad name or description passed to Build.
var ErrInvalidOrchestra = errors.New("invalid orchestra")

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Coordinator drives the sessions. Defaults to engine.New().
	Coordinator *engine.Coordinator

	// Designer produces definitions for Build. Defaults to a TemplateBuilder.
	Designer builder.Designer

	// Fallback designs the team of orchestras stored without agents.
	// Defaults to a TemplateBuilder.
	Fallback builder.Designer

	// Outcome persistence. Defaults to an in-memory archive.
	Outcomes core.OutcomeStore

	// Exported configuration and transcript files. Defaults to in-memory.
	Artifacts core.ArtifactStore

	// MaxRounds applies when the definition sets none.
	MaxRounds int

	// TerminationMarker applies when the definition sets none.
	TerminationMarker string

	// Kickoff writes the orchestra description as the round 0 entry.
	Kickoff bool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// RunOptions tweak a single Run call.
type RunOptions struct {
	// SessionID lets callers know the id up front, for example to Cancel.
	SessionID string
	// Message replaces the orchestra description as the kickoff message.
	Message string
	// MaxRounds overrides the definition and runner defaults.
	MaxRounds int
}

// Result is what a Run produced.
type Result struct {
	Orchestra      *core.Orchestra
	Definition     *builder.Definition
	Outcome        core.Outcome
	ConfigPath     string
	TranscriptPath string
}

// Runner invokes stored orchestras: load, build, run, persist. Public
// methods are safe for concurrent use.
type Runner struct {
	registry core.Registry
	factory  *agent.Factory

	coordinator *engine.Coordinator
	designer    builder.Designer
	fallback    builder.Designer
	outcomes    core.OutcomeStore
	artifacts   core.ArtifactStore

	maxRounds int
	marker    string
	kickoff   bool
	logger    logging.Logger
}

// New constructs a Runner with optional overrides.
func New(registry core.Registry, factory *agent.Factory, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Outcomes:          session.NewArchive(),
		Artifacts:         artifact.NewInMemoryStore(),
		MaxRounds:         12,
		TerminationMarker: "TERMINATE",
		Kickoff:           true,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Coordinator == nil {
		opts.Coordinator = engine.New(func(o *engine.Options) { o.Logger = opts.Logger })
	}
	template := builder.NewTemplateBuilder(factory, func(o *builder.TemplateOptions) {
		o.MaxRounds = opts.MaxRounds
		o.TerminationMarker = opts.TerminationMarker
	})
	if opts.Designer == nil {
		opts.Designer = template
	}
	if opts.Fallback == nil {
		opts.Fallback = template
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Outcomes == nil {
		opts.Outcomes = session.NewArchive()
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.NewInMemoryStore()
	}

	return &Runner{
		registry:    registry,
		factory:     factory,
		coordinator: opts.Coordinator,
		designer:    opts.Designer,
		fallback:    opts.Fallback,
		outcomes:    opts.Outcomes,
		artifacts:   opts.Artifacts,
		maxRounds:   opts.MaxRounds,
		marker:      opts.TerminationMarker,
		kickoff:     opts.Kickoff,
		logger:      opts.Logger,
	}
}

// Coordinator returns the coordinator sessions run on.
func (r *Runner) Coordinator() *engine.Coordinator { return r.coordinator }

// List returns the names of the stored orchestras.
func (r *Runner) List(ctx context.Context) ([]string, error) {
	return r.registry.List(ctx)
}

// Describe loads one orchestra.
func (r *Runner) Describe(ctx context.Context, name string) (*core.Orchestra, error) {
	return r.registry.Load(ctx, name)
}

// Outcomes lists the persisted sessions of an orchestra.
func (r *Runner) Outcomes(ctx context.Context, name string) ([]core.OutcomeRecord, error) {
	return r.outcomes.ListOutcomes(ctx, name)
}

// Definition resolves the definition an orchestra runs with. Orchestras
// stored without agents get a team designed from their description.
func (r *Runner) Definition(ctx context.Context, o *core.Orchestra) (*builder.Definition, error) {
	raw := []byte(o.Definition)
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	def, err := builder.ParseDefinition(raw, builder.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("orchestra %q: %w", o.Name, err)
	}
	if def.HasAgents() {
		return def, nil
	}

	designed, err := r.fallback.Design(ctx, o.Description)
	if err != nil {
		return nil, fmt.Errorf("orchestra %q: design team: %w", o.Name, err)
	}
	designed.Type, designed.Theme, designed.File = def.Type, def.Theme, def.File
	if def.MaxRounds > 0 {
		designed.MaxRounds = def.MaxRounds
	}
	if def.TerminationMarker != "" {
		designed.TerminationMarker = def.TerminationMarker
	}
	return designed, nil
}

// Run executes the named orchestra once. A session that fails is not an
// error: its status and reason are in Result.Outcome. Errors are returned for
// problems before the session starts or while persisting it.
func (r *Runner) Run(ctx context.Context, name string, optFns ...func(o *RunOptions)) (*Result, error) {
	var ro RunOptions
	for _, fn := range optFns {
		fn(&ro)
	}

	orch, err := r.registry.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	def, err := r.Definition(ctx, orch)
	if err != nil {
		return nil, err
	}

	res := &Result{Orchestra: orch, Definition: def}

	data, err := def.Encode(builder.FormatJSON)
	if err != nil {
		return nil, err
	}
	if res.ConfigPath, err = r.artifacts.Save("", artifact.FileName(orch.Name)+"_config.json", data); err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}

	roster, err := def.Roster(r.factory, orch.Description)
	if err != nil {
		return nil, err
	}

	req := engine.Request{
		SessionID:      ro.SessionID,
		Roster:         roster,
		MaxRounds:      firstPositive(ro.MaxRounds, def.MaxRounds, r.maxRounds),
		Predicate:      engine.ContainsMarker(firstNonEmpty(def.TerminationMarker, r.marker)),
		KickoffSpeaker: firstNonEmpty(def.Initiator, roster.At(0).ID()),
	}
	if r.kickoff {
		req.Message = firstNonEmpty(ro.Message, orch.Description)
	}

	r.logger.Info("orchestra.run", "orchestra", orch.Name, "agents", roster.Len(),
		"rotation_rule", roster.Rule().String(), "max_rounds", req.MaxRounds)

	res.Outcome = r.coordinator.Run(ctx, req)

	// The session may have ended because ctx was cancelled; persist anyway.
	persistCtx := context.WithoutCancel(ctx)

	rec := core.NewOutcomeRecord(orch.Name, res.Outcome)
	if err := r.outcomes.SaveOutcome(persistCtx, rec); err != nil {
		return res, fmt.Errorf("save outcome: %w", err)
	}

	transcript, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return res, err
	}
	if res.TranscriptPath, err = r.artifacts.Save("", rec.SessionID+"_transcript.json", transcript); err != nil {
		return res, fmt.Errorf("export transcript: %w", err)
	}

	r.logger.Info("orchestra.done", "orchestra", orch.Name, "session_id", rec.SessionID,
		"status", rec.Status.String(), "rounds", rec.Rounds)

	return res, nil
}

// Build designs a new orchestra for description, exports its definition as
// save_config_<name>.json and stores it under name with today's date.
func (r *Runner) Build(ctx context.Context, name, description string) (*core.Orchestra, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidOrchestra)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: empty description", ErrInvalidOrchestra)
	}

	def, err := r.designer.Design(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("design %q: %w", name, err)
	}
	def.File = "save_config_" + artifact.FileName(name) + ".json"
	if err := def.Validate(); err != nil {
		return nil, err
	}

	data, err := def.Encode(builder.FormatJSON)
	if err != nil {
		return nil, err
	}
	if _, err := r.artifacts.Save("", def.File, data); err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}

	orch := &core.Orchestra{
		Name:        name,
		Description: description,
		Date:        core.Today(),
		Definition:  json.RawMessage(data),
	}
	if err := r.registry.Save(ctx, orch); err != nil {
		return nil, err
	}

	r.logger.Info("orchestra.built", "orchestra", name, "agents", len(def.AgentConfigs))
	return orch, nil
}

// Cancel cancels a running session by id.
func (r *Runner) Cancel(sessionID string) error {
	return r.coordinator.Cancel(sessionID)
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
