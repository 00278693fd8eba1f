package agent

import "github.com/andishehs/MetaGen/internal/util"

// State is the data an instruction template is rendered against. Model
// capabilities populate the keys "name", "role", "task" and "agents".
type State map[string]any

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(State) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(State) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(s State) (string, error) { return f(s) }

// Instruction represents either a static instruction template or a dynamic
// provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string. The
// text may contain template markers such as {{.name}}.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(State) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether the instruction carries neither text nor provider.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text, invoking the provider if needed and
// rendering template markers against state.
func (i Instruction) Resolve(state State) (string, error) {
	text := i.text
	if i.provider != nil {
		var err error
		if text, err = i.provider.Instruction(state); err != nil {
			return "", err
		}
	}
	return util.RenderTemplate(text, state)
}
