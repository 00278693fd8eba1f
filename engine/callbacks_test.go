package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackManager_OrderAndShortCircuit(t *testing.T) {
	cm := NewCallbackManager()
	var calls []string

	cm.On(CallbackBeforeRound, func(context.Context, *CallbackContext) error {
		calls = append(calls, "first")
		return nil
	})
	cm.On(CallbackBeforeRound, func(context.Context, *CallbackContext) error {
		calls = append(calls, "second")
		return errors.New("stop")
	})
	cm.On(CallbackBeforeRound, func(context.Context, *CallbackContext) error {
		calls = append(calls, "third")
		return nil
	})

	cc := &CallbackContext{SessionID: "s"}
	err := cm.ExecuteCallbacks(context.Background(), CallbackBeforeRound, cc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "before_round callback: stop")
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, CallbackBeforeRound, cc.CallbackType)
}

func TestCallbackManager_NoCallbacks(t *testing.T) {
	cm := NewCallbackManager()
	assert.NoError(t, cm.ExecuteCallbacks(context.Background(), CallbackSessionEnd, &CallbackContext{}))
}

func TestLoggingCallback(t *testing.T) {
	var lines []string
	cb := NewLoggingCallback(CallbackOnRetry, func(m string) { lines = append(lines, m) })
	assert.Equal(t, CallbackOnRetry, cb.Type())

	err := cb.Execute(context.Background(), &CallbackContext{
		SessionID:    "s1",
		Round:        3,
		AgentID:      "critic",
		CallbackType: CallbackOnRetry,
		Err:          errors.New("timeout"),
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "[on_retry] session=s1 round=3 agent=critic err=timeout", lines[0])

	assert.NoError(t, NewLoggingCallback(CallbackOnRetry, nil).Execute(context.Background(), &CallbackContext{}))
}
