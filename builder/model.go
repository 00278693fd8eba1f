package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/andishehs/MetaGen/agent"
	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/internal/util"
	"github.com/andishehs/MetaGen/logging"
	"github.com/andishehs/MetaGen/model"
)

const designInstruction = `You design teams of AI agents that solve a task by conversing in a group chat.
Reply with a single JSON object and nothing else. The object must match this JSON Schema:

%s

Use between 2 and %d agents with short snake_case names, give each a role and a system_message.
Set "coding" to true when the task requires writing and running code; the last agent is then the executor.
The agent that judges completion must reply with %s when the task is done.`

// ModelOptions configures a ModelBuilder.
type ModelOptions struct {
	MaxAgents         int
	TerminationMarker string
	// DefaultLLM is stamped onto generated definitions lacking one.
	DefaultLLM *LLMConfig
	Logger     logging.Logger
}

// ModelBuilder asks a language model to design the team for a task.
type ModelBuilder struct {
	llm     model.Model
	factory *agent.Factory
	opts    ModelOptions
}

// NewModelBuilder creates a ModelBuilder.
func NewModelBuilder(llm model.Model, factory *agent.Factory, optFns ...func(o *ModelOptions)) *ModelBuilder {
	opts := ModelOptions{
		MaxAgents:         5,
		TerminationMarker: "TERMINATE",
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelBuilder{llm: llm, factory: factory, opts: opts}
}

// Design implements Designer. The reply may be wrapped in a markdown code
// fence; it must validate against DefinitionSchema and name between two
// and MaxAgents agents.
func (b *ModelBuilder) Design(ctx context.Context, task string) (*Definition, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, fmt.Errorf("%w: empty task description", core.ErrInvalidRoster)
	}

	req := model.Request{
		Instructions: fmt.Sprintf(designInstruction, DefinitionSchema, b.opts.MaxAgents, b.opts.TerminationMarker),
		Messages: []model.Message{
			{Role: model.RoleUser, Text: "Task: " + task},
		},
	}

	resp, err := model.Collect(ctx, b.llm, req)
	if err != nil {
		return nil, fmt.Errorf("design team: %w", err)
	}

	def, err := ParseDefinition([]byte(util.StripCodeFences(resp.Text)), FormatJSON)
	if err != nil {
		b.opts.Logger.Warn("builder.design.invalid", "error", err.Error())
		return nil, err
	}
	if len(def.AgentConfigs) < 2 {
		return nil, fmt.Errorf("%w: designed team has %d agents", core.ErrInvalidRoster, len(def.AgentConfigs))
	}
	if b.opts.MaxAgents > 0 && len(def.AgentConfigs) > b.opts.MaxAgents {
		return nil, fmt.Errorf("%w: designed team has %d agents, limit is %d",
			core.ErrInvalidRoster, len(def.AgentConfigs), b.opts.MaxAgents)
	}

	if def.BuildingTask == "" {
		def.BuildingTask = task
	}
	if def.TerminationMarker == "" {
		def.TerminationMarker = b.opts.TerminationMarker
	}
	if def.DefaultLLMConfig == nil && b.opts.DefaultLLM != nil {
		cfg := *b.opts.DefaultLLM
		def.DefaultLLMConfig = &cfg
	}

	b.opts.Logger.Info("builder.design.complete", "agents", strings.Join(def.Names(), ","), "coding", def.Coding)

	return def, nil
}

// Build implements core.Builder.
func (b *ModelBuilder) Build(ctx context.Context, task string) (*core.Roster, error) {
	return build(ctx, b, b.factory, task)
}
