package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/logging"
	"github.com/andishehs/MetaGen/model"
)

// DefaultInstruction is used when a model capability has no instruction of
// its own.
const DefaultInstruction = "You are {{.name}}, {{default \"a helpful assistant\" .role}}, " +
	"taking part in a group conversation about: {{.task}}. " +
	"Other participants: {{join \", \" .agents}}. Reply with your next message only."

// ModelOptions configures a ModelCapability instance.
type ModelOptions struct {
	Instruction        Instruction
	Role               string
	Task               string
	Peers              []string
	EnableStreaming    bool
	MaxHistoryMessages int
	Logger             logging.Logger
}

// ModelCapability answers turns by prompting a language model with the
// conversation so far. Entries written by the agent itself are sent as
// assistant messages; everything else is sent as named user messages.
type ModelCapability struct {
	llm                model.Model
	instruction        Instruction
	role               string
	task               string
	peers              []string
	enableStreaming    bool
	maxHistoryMessages int
	logger             logging.Logger
}

// NewModelCapability creates a capability backed by llm.
func NewModelCapability(llm model.Model, optFns ...func(o *ModelOptions)) *ModelCapability {
	opts := ModelOptions{
		Instruction: NewInstructionFromText(DefaultInstruction),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Instruction.IsZero() {
		opts.Instruction = NewInstructionFromText(DefaultInstruction)
	}

	return &ModelCapability{
		llm:                llm,
		instruction:        opts.Instruction,
		role:               opts.Role,
		task:               opts.Task,
		peers:              append([]string(nil), opts.Peers...),
		enableStreaming:    opts.EnableStreaming,
		maxHistoryMessages: opts.MaxHistoryMessages,
		logger:             opts.Logger,
	}
}

// Model returns the underlying language model.
func (c *ModelCapability) Model() model.Model { return c.llm }

// Respond implements core.Capability.
func (c *ModelCapability) Respond(ctx context.Context, agentID string, history []core.TranscriptEntry) (string, error) {
	instructions, err := c.instruction.Resolve(c.state(agentID, history))
	if err != nil {
		return "", fmt.Errorf("resolve instruction for %s: %w", agentID, err)
	}

	req := model.Request{
		Instructions: instructions,
		Messages:     c.messages(agentID, history),
		Stream:       c.enableStreaming,
	}

	start := time.Now()
	resp, err := model.Collect(ctx, c.llm, req)
	info := c.llm.Info()
	if err != nil {
		c.logger.Warn("capability.model.error",
			"agent", agentID,
			"model", info.Name,
			"provider", info.Provider,
			"duration", time.Since(start),
			"error", err.Error(),
		)
		return "", err
	}

	c.logger.Debug("capability.model.complete",
		"agent", agentID,
		"model", info.Name,
		"provider", info.Provider,
		"duration", time.Since(start),
		"finish_reason", resp.FinishReason,
	)

	return strings.TrimSpace(resp.Text), nil
}

func (c *ModelCapability) state(agentID string, history []core.TranscriptEntry) State {
	task := c.task
	if task == "" && len(history) > 0 {
		task = history[0].Content
	}
	return State{
		"name":   agentID,
		"role":   c.role,
		"task":   task,
		"agents": c.peers,
	}
}

func (c *ModelCapability) messages(agentID string, history []core.TranscriptEntry) []model.Message {
	if c.maxHistoryMessages > 0 && len(history) > c.maxHistoryMessages {
		history = history[len(history)-c.maxHistoryMessages:]
	}

	msgs := make([]model.Message, 0, len(history))
	for _, e := range history {
		if e.Speaker == agentID {
			msgs = append(msgs, model.Message{Role: model.RoleAssistant, Text: e.Content})
			continue
		}
		msgs = append(msgs, model.Message{Role: model.RoleUser, Name: e.Speaker, Text: e.Content})
	}

	// Generation needs a prompt to answer even when the agent opens the
	// conversation.
	if len(msgs) == 0 || msgs[len(msgs)-1].Role == model.RoleAssistant {
		msgs = append(msgs, model.Message{Role: model.RoleUser, Text: "Continue the conversation."})
	}
	return msgs
}
