package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/andishehs/MetaGen/core"
)

// CallbackType defines the lifecycle points where callbacks run.
//
// Callbacks provide a hook into the coordinator loop without modifying it.
// They are executed synchronously on the session goroutine.
type CallbackType string

const (
	// CallbackSessionStart fires after validation and kickoff, before round one.
	CallbackSessionStart CallbackType = "session_start"

	// CallbackBeforeRound fires after speaker selection, before the capability call.
	CallbackBeforeRound CallbackType = "before_round"

	// CallbackAfterRound fires after an entry has been appended.
	CallbackAfterRound CallbackType = "after_round"

	// CallbackOnRetry fires when a capability call failed and will be retried.
	CallbackOnRetry CallbackType = "on_retry"

	// CallbackSessionEnd fires once the session is terminal. Its error is
	// logged and otherwise ignored.
	CallbackSessionEnd CallbackType = "session_end"
)

// CallbackContext carries the information available at a lifecycle point.
// Fields that do not apply to a callback type are left zero.
type CallbackContext struct {
	SessionID    string
	CallbackType CallbackType
	Round        int
	AgentID      string
	Attempt      int

	// Entry is the appended transcript entry (after_round only).
	Entry *core.TranscriptEntry

	// Err is the failed attempt's error (on_retry only).
	Err error

	// Outcome is the terminal outcome (session_end only).
	Outcome *core.Outcome

	// Transcript gives read access to the running transcript.
	Transcript core.TranscriptView

	Metadata map[string]any
}

// Callback defines the interface for coordinator lifecycle hooks.
//
// Returning an error from any callback other than session_end fails the
// session with that error as the failure reason.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	printer := NewFunctionCallback(CallbackAfterRound,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        fmt.Printf("%s: %s\n", cc.Entry.Speaker, cc.Entry.Content)
//	        return nil
//	    })
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager is a registry of callbacks keyed by type. Callbacks run in
// registration order and the first error stops the chain. Registration and
// execution are safe for concurrent use so one manager can serve many
// sessions.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// On is shorthand for registering a FunctionCallback.
func (cm *CallbackManager) On(callbackType CallbackType, fn func(ctx context.Context, callbackCtx *CallbackContext) error) {
	cm.RegisterCallback(NewFunctionCallback(callbackType, fn))
}

// ExecuteCallbacks executes all registered callbacks for the specified type.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback forwards lifecycle events to a log function.
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the lifecycle event with session, round and agent.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	message := fmt.Sprintf("[%s] session=%s round=%d agent=%s",
		c.callbackType, callbackCtx.SessionID, callbackCtx.Round, callbackCtx.AgentID)
	if callbackCtx.Err != nil {
		message += fmt.Sprintf(" err=%v", callbackCtx.Err)
	}
	c.logger(message)
	return nil
}
