package builder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/andishehs/MetaGen/agent"
	"github.com/andishehs/MetaGen/core"
)

// ErrInvalidDefinition is returned for documents that cannot be decoded or
// fail schema validation.
var ErrInvalidDefinition = errors.New("invalid definition")

// Format is a definition document encoding.
type Format string

// Supported definition formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions
// yield the empty format, which makes ParseDefinition sniff the content.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return ""
	}
}

// LLMConfig holds the model defaults applied to agents that do not set their
// own.
type LLMConfig struct {
	Provider    string   `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider,omitempty"`
	Model       string   `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty"`
}

// Definition describes an orchestra.
type Definition struct {
	BuildingTask       string       `json:"building_task,omitempty" yaml:"building_task,omitempty" toml:"building_task,omitempty"`
	AgentConfigs       []agent.Spec `json:"agent_configs,omitempty" yaml:"agent_configs,omitempty" toml:"agent_configs,omitempty"`
	Coding             bool         `json:"coding,omitempty" yaml:"coding,omitempty" toml:"coding,omitempty"`
	RotationRule       string       `json:"rotation_rule,omitempty" yaml:"rotation_rule,omitempty" toml:"rotation_rule,omitempty"`
	ExcludedFromRepeat []string     `json:"excluded_from_repeat,omitempty" yaml:"excluded_from_repeat,omitempty" toml:"excluded_from_repeat,omitempty"`
	MaxRounds          int          `json:"max_rounds,omitempty" yaml:"max_rounds,omitempty" toml:"max_rounds,omitempty"`
	TerminationMarker  string       `json:"termination_marker,omitempty" yaml:"termination_marker,omitempty" toml:"termination_marker,omitempty"`
	Initiator          string       `json:"initiator,omitempty" yaml:"initiator,omitempty" toml:"initiator,omitempty"`
	DefaultLLMConfig   *LLMConfig   `json:"default_llm_config,omitempty" yaml:"default_llm_config,omitempty" toml:"default_llm_config,omitempty"`

	// Descriptive fields carried by the sample orchestras.
	Type  string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Theme string `json:"theme,omitempty" yaml:"theme,omitempty" toml:"theme,omitempty"`
	File  string `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty"`
}

// ParseDefinition decodes and validates a definition document. An empty
// format is sniffed: documents starting with '{' are JSON, anything else is
// YAML.
func ParseDefinition(data []byte, format Format) (*Definition, error) {
	if format == "" {
		format = FormatYAML
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			format = FormatJSON
		}
	}

	var def Definition
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &def)
	case FormatYAML:
		err = yaml.Unmarshal(data, &def)
	case FormatTOML:
		err = toml.Unmarshal(data, &def)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidDefinition, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidDefinition, format, err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Encode writes the definition in the given format.
func (d *Definition) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.MarshalIndent(d, "", "  ")
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatTOML:
		return toml.Marshal(d)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidDefinition, format)
	}
}

// Validate checks the definition against the definition JSON Schema.
func (d *Definition) Validate() error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return validateDocument(raw)
}

// HasAgents reports whether the definition names its agents.
func (d *Definition) HasAgents() bool { return len(d.AgentConfigs) > 0 }

// Names returns the agent names in roster order.
func (d *Definition) Names() []string {
	names := make([]string, len(d.AgentConfigs))
	for i, spec := range d.AgentConfigs {
		names[i] = spec.Name
	}
	return names
}

// Rule resolves the rotation rule. Without an explicit rule, coding
// orchestras rotate with NoImmediateRepeat and everything else is
// FreeForAll.
func (d *Definition) Rule() (core.RotationRule, error) {
	if strings.TrimSpace(d.RotationRule) != "" {
		return core.ParseRotationRule(d.RotationRule)
	}
	if d.Coding {
		return core.NoImmediateRepeat, nil
	}
	return core.FreeForAll, nil
}

// Excluded resolves the agents barred from repeat turns. Coding orchestras
// default to excluding their last agent, the executor.
func (d *Definition) Excluded() []string {
	if len(d.ExcludedFromRepeat) > 0 {
		return append([]string(nil), d.ExcludedFromRepeat...)
	}
	if d.Coding && len(d.AgentConfigs) > 0 {
		return []string{d.AgentConfigs[len(d.AgentConfigs)-1].Name}
	}
	return nil
}

// Spec returns agent i with the definition's LLM defaults applied.
func (d *Definition) Spec(i int) agent.Spec {
	spec := d.AgentConfigs[i]
	if cfg := d.DefaultLLMConfig; cfg != nil {
		if spec.Provider == "" {
			spec.Provider = cfg.Provider
		}
		if spec.Model == "" {
			spec.Model = cfg.Model
		}
		if spec.Temperature == nil {
			spec.Temperature = cfg.Temperature
		}
	}
	return spec
}

// Roster binds the definition's agents through factory. task is handed to
// model-backed agents for their instructions; it defaults to BuildingTask.
func (d *Definition) Roster(factory *agent.Factory, task string) (*core.Roster, error) {
	if !d.HasAgents() {
		return nil, fmt.Errorf("%w: definition has no agents", core.ErrInvalidRoster)
	}
	if task == "" {
		task = d.BuildingTask
	}

	rule, err := d.Rule()
	if err != nil {
		return nil, err
	}

	names := d.Names()
	agents := make([]core.Agent, 0, len(d.AgentConfigs))
	for i := range d.AgentConfigs {
		a, err := factory.Agent(d.Spec(i), task, names)
		if err != nil {
			if errors.Is(err, core.ErrInvalidRoster) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidRoster, err)
		}
		agents = append(agents, a)
	}

	return core.NewRoster(agents, rule, d.Excluded()...)
}
