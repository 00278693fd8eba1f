package agent

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/logging"
	"github.com/andishehs/MetaGen/model"
	"github.com/andishehs/MetaGen/model/anthropic"
	"github.com/andishehs/MetaGen/model/openai"
)

// Supported capability providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
	ProviderScripted  = "scripted"
	ProviderEcho      = "echo"
	ProviderHuman     = "human"
)

// ErrUnknownProvider is returned for an agent whose provider is not supported.
var ErrUnknownProvider = errors.New("unknown provider")

// Spec describes one agent of an orchestra definition.
type Spec struct {
	Name          string   `json:"name" yaml:"name" toml:"name"`
	Role          string   `json:"role,omitempty" yaml:"role,omitempty" toml:"role,omitempty"`
	SystemMessage string   `json:"system_message,omitempty" yaml:"system_message,omitempty" toml:"system_message,omitempty"`
	Provider      string   `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider,omitempty"`
	Model         string   `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	Script        []string `json:"script,omitempty" yaml:"script,omitempty" toml:"script,omitempty"`
}

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	Provider     string
	Model        string
	Temperature  float64
	OpenAIKey    string
	AnthropicKey string

	// RateLimit caps model calls per second per agent; 0 disables pacing.
	RateLimit float64
	Burst     int

	// BreakerFailures and BreakerTimeout guard model-backed agents; zero
	// failures disables the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	MaxHistoryMessages int
	EnableStreaming    bool

	// Models overrides model construction per provider name.
	Models map[string]model.Model

	Input  io.Reader
	Output io.Writer
	Logger logging.Logger
}

// Factory turns agent specs into roster agents, choosing a capability
// provider per spec.
type Factory struct {
	opts  FactoryOptions
	human *Human
}

// NewFactory creates a factory with OpenAI gpt-4o-mini at temperature 0 as
// the default provider.
func NewFactory(optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{
		Provider:        ProviderOpenAI,
		Model:           "gpt-4o-mini",
		Burst:           1,
		BreakerFailures: defaultBreakerFailures,
		BreakerTimeout:  defaultBreakerTimeout,
		Input:           os.Stdin,
		Output:          os.Stdout,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Factory{opts: opts}
}

// Options returns the factory configuration.
func (f *Factory) Options() FactoryOptions { return f.opts }

// Agent builds a roster agent for spec. task and peers feed the instruction
// template of model-backed agents.
func (f *Factory) Agent(spec Spec, task string, peers []string) (core.Agent, error) {
	capability, err := f.Capability(spec, task, peers)
	if err != nil {
		return core.Agent{}, err
	}
	return core.NewAgent(spec.Name, spec.Role, capability)
}

// Capability builds only the capability provider for spec.
func (f *Factory) Capability(spec Spec, task string, peers []string) (core.Capability, error) {
	provider := f.provider(spec)

	switch provider {
	case ProviderScripted:
		if len(spec.Script) == 0 {
			return nil, fmt.Errorf("agent %q: scripted provider needs a script", spec.Name)
		}
		return NewScripted(true, spec.Script...), nil
	case ProviderEcho:
		return Echo(), nil
	case ProviderHuman:
		if f.human == nil {
			f.human = NewHuman(f.opts.Input, f.opts.Output)
		}
		return f.human, nil
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
		llm := f.model(provider, spec)
		var capability core.Capability = NewModelCapability(llm, func(o *ModelOptions) {
			if spec.SystemMessage != "" {
				o.Instruction = NewInstructionFromText(spec.SystemMessage)
			}
			o.Role = spec.Role
			o.Task = task
			o.Peers = others(peers, spec.Name)
			o.EnableStreaming = f.opts.EnableStreaming
			o.MaxHistoryMessages = f.opts.MaxHistoryMessages
			o.Logger = f.opts.Logger
		})
		capability = WithRateLimit(capability, f.opts.RateLimit, f.opts.Burst)
		if f.opts.BreakerFailures > 0 {
			capability = WithCircuitBreaker(spec.Name, capability, func(o *BreakerOptions) {
				o.Failures = f.opts.BreakerFailures
				o.Timeout = f.opts.BreakerTimeout
				o.Logger = f.opts.Logger
			})
		}
		return capability, nil
	default:
		return nil, fmt.Errorf("agent %q: %w %q", spec.Name, ErrUnknownProvider, provider)
	}
}

// Model returns the language model an agent built from spec talks to.
// Non-model providers resolve to a mock.
func (f *Factory) Model(spec Spec) model.Model {
	return f.model(f.provider(spec), spec)
}

func (f *Factory) provider(spec Spec) string {
	provider := strings.ToLower(strings.TrimSpace(spec.Provider))
	if provider == "" {
		provider = f.opts.Provider
	}
	return provider
}

func (f *Factory) model(provider string, spec Spec) model.Model {
	if m, ok := f.opts.Models[provider]; ok {
		return m
	}

	name := spec.Model
	if name == "" && provider == f.opts.Provider {
		name = f.opts.Model
	}
	temperature := f.opts.Temperature
	if spec.Temperature != nil {
		temperature = *spec.Temperature
	}

	switch provider {
	case ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if name != "" {
				o.Model = name
			}
			o.Temperature = temperature
			o.APIKey = f.opts.AnthropicKey
		})
	case ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if name != "" {
				o.Model = name
			}
			o.Temperature = temperature
			o.APIKey = f.opts.OpenAIKey
		})
	default:
		if name == "" {
			name = ProviderMock
		}
		mock := model.NewMockModel(name, ProviderMock)
		mock.Enqueue(spec.Script...)
		return mock
	}
}

func others(all []string, self string) []string {
	out := make([]string, 0, len(all))
	for _, id := range all {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
