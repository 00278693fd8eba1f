package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/andishehs/MetaGen/agent"
	"github.com/andishehs/MetaGen/core"
)

// TemplateOptions configures a TemplateBuilder.
type TemplateOptions struct {
	// Provider is assigned to every generated agent; empty defers to the
	// factory default.
	Provider string
	// Coding appends an executor agent that is barred from repeat turns.
	Coding            bool
	MaxRounds         int
	TerminationMarker string
}

// TemplateBuilder derives a fixed-shape team from the task description. It
// needs no model and is the fallback for orchestras stored without agents.
type TemplateBuilder struct {
	factory *agent.Factory
	opts    TemplateOptions
}

// NewTemplateBuilder creates a TemplateBuilder.
func NewTemplateBuilder(factory *agent.Factory, optFns ...func(o *TemplateOptions)) *TemplateBuilder {
	opts := TemplateOptions{
		MaxRounds:         12,
		TerminationMarker: "TERMINATE",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &TemplateBuilder{factory: factory, opts: opts}
}

// Design implements Designer.
func (b *TemplateBuilder) Design(ctx context.Context, task string) (*Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	task = strings.TrimSpace(task)
	if task == "" {
		return nil, fmt.Errorf("%w: empty task description", core.ErrInvalidRoster)
	}

	marker := b.opts.TerminationMarker
	specs := []agent.Spec{
		{
			Name: "planner",
			Role: "breaks the task into steps",
			SystemMessage: "You are {{.name}}, the planner. Break the task into clear steps and " +
				"keep the group focused on: {{.task}}",
		},
		{
			Name: "domain_expert",
			Role: "supplies subject knowledge",
			SystemMessage: "You are {{.name}}, the domain expert. Contribute concrete knowledge " +
				"for each step of: {{.task}}",
		},
		{
			Name: "critic",
			Role: "reviews and decides when the work is done",
			SystemMessage: "You are {{.name}}, the critic. Point out gaps in the group's answer to: {{.task}}. " +
				"When the answer is complete, reply with " + marker + ".",
		},
	}
	if b.opts.Coding {
		specs = append(specs, agent.Spec{
			Name:          "executor",
			Role:          "runs and reports on proposed code",
			SystemMessage: "You are {{.name}}. Report the result of running the code proposed for: {{.task}}",
		})
	}
	for i := range specs {
		specs[i].Provider = b.opts.Provider
		specs[i].Script = []string{fmt.Sprintf("%s: acknowledged.", specs[i].Name)}
	}

	return &Definition{
		BuildingTask:      task,
		AgentConfigs:      specs,
		Coding:            b.opts.Coding,
		MaxRounds:         b.opts.MaxRounds,
		TerminationMarker: marker,
	}, nil
}

// Build implements core.Builder.
func (b *TemplateBuilder) Build(ctx context.Context, task string) (*core.Roster, error) {
	return build(ctx, b, b.factory, task)
}
