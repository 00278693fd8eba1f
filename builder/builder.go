package builder

import (
	"context"

	"github.com/andishehs/MetaGen/agent"
	"github.com/andishehs/MetaGen/core"
)

// Designer produces a definition for a task. TemplateBuilder and
// ModelBuilder implement it next to core.Builder so callers can persist what
// was built.
type Designer interface {
	Design(ctx context.Context, task string) (*Definition, error)
}

// StaticBuilder builds rosters from a fixed definition.
type StaticBuilder struct {
	def     *Definition
	factory *agent.Factory
}

// NewStaticBuilder creates a StaticBuilder.
func NewStaticBuilder(def *Definition, factory *agent.Factory) *StaticBuilder {
	return &StaticBuilder{def: def, factory: factory}
}

// Design returns the fixed definition.
func (b *StaticBuilder) Design(_ context.Context, _ string) (*Definition, error) {
	return b.def, nil
}

// Build implements core.Builder.
func (b *StaticBuilder) Build(ctx context.Context, task string) (*core.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.def.Roster(b.factory, task)
}

// build designs a definition and binds it.
func build(ctx context.Context, d Designer, factory *agent.Factory, task string) (*core.Roster, error) {
	def, err := d.Design(ctx, task)
	if err != nil {
		return nil, err
	}
	return def.Roster(factory, task)
}
