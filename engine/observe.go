package engine

import (
	"context"
	"sync"
	"time"

	"github.com/andishehs/MetaGen/logging"
)

// Observe registers callbacks on cm that report rounds, retries and outcomes
// through the structured logger's domain helpers.
func Observe(cm *CallbackManager, logger *logging.StructuredLogger) {
	var started sync.Map // session id -> round start

	cm.On(CallbackBeforeRound, func(_ context.Context, cc *CallbackContext) error {
		started.Store(cc.SessionID, time.Now())
		return nil
	})

	cm.On(CallbackAfterRound, func(_ context.Context, cc *CallbackContext) error {
		var dur time.Duration
		if v, ok := started.Load(cc.SessionID); ok {
			dur = time.Since(v.(time.Time))
		}
		speaker := cc.AgentID
		if cc.Entry != nil {
			speaker = cc.Entry.Speaker
		}
		logger.WithSession(cc.SessionID).LogRound(cc.Round, speaker, dur)
		return nil
	})

	cm.On(CallbackOnRetry, func(_ context.Context, cc *CallbackContext) error {
		var dur time.Duration
		if v, ok := started.Load(cc.SessionID); ok {
			dur = time.Since(v.(time.Time))
		}
		logger.WithSession(cc.SessionID).LogCapabilityCall(cc.AgentID, cc.Attempt, dur, cc.Err)
		return nil
	})

	cm.On(CallbackSessionEnd, func(_ context.Context, cc *CallbackContext) error {
		started.Delete(cc.SessionID)
		if cc.Outcome == nil {
			return nil
		}
		logger.WithSession(cc.SessionID).LogOutcome(cc.Outcome.Status.String(), cc.Outcome.Rounds, cc.Outcome.FailureReason)
		return nil
	})
}
