package agent

import (
	"errors"
	"testing"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instruction(State) (string, error) { return m.text, m.err }

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	got, err := inst.Resolve(State{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static instruction" {
		t.Fatalf("expected 'static instruction', got %q", got)
	}
}

func TestInstruction_Template(t *testing.T) {
	inst := NewInstructionFromText("You are {{.name}} working on {{.task}}.")
	got, err := inst.Resolve(State{"name": "planner", "task": "a launch plan"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "You are planner working on a launch plan." {
		t.Fatalf("unexpected instruction %q", got)
	}
}

func TestInstruction_NewInstructionFromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(s State) (string, error) { return "dynamic for {{.name}}", nil })
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(State{"name": "critic"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "dynamic for critic" {
		t.Fatalf("expected 'dynamic for critic', got %q", got)
	}
}

func TestInstruction_NewInstructionFromProvider(t *testing.T) {
	inst := NewInstructionFromProvider(mockProvider{text: "provider text"})
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "provider text" {
		t.Fatalf("expected 'provider text', got %q", got)
	}
}

func TestInstruction_ErrorPropagation(t *testing.T) {
	expectedErr := errors.New("boom")
	inst := NewInstructionFromProvider(mockProvider{err: expectedErr})
	_, err := inst.Resolve(nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}
}

func TestInstruction_IsZero(t *testing.T) {
	if !(Instruction{}).IsZero() {
		t.Fatalf("expected zero instruction")
	}
	if NewInstructionFromText("x").IsZero() {
		t.Fatalf("expected non-zero instruction")
	}
}
