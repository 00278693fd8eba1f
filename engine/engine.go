package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/flow"
	"github.com/andishehs/MetaGen/logging"
)

// TracerName identifies spans produced by the coordinator.
const TracerName = "github.com/andishehs/MetaGen/engine"

// Config defines tuning parameters for the coordinator.
type Config struct {
	// CallTimeout bounds a single capability call. Values <= 0 fall back to
	// DefaultConfig.CallTimeout; every call is bounded.
	CallTimeout time.Duration

	// RetryBudget is the number of additional attempts after a failed
	// capability call within the same round.
	RetryBudget int

	// RetryDelay is waited between attempts.
	RetryDelay time.Duration

	// MaxCapabilityCalls caps provider calls per session, retries included.
	// Zero means unlimited.
	MaxCapabilityCalls int
}

// DefaultConfig provides the default coordinator configuration:
//   - CallTimeout: 60s
//   - RetryBudget: 2
//   - RetryDelay: none
//   - MaxCapabilityCalls: unlimited
var DefaultConfig = Config{
	CallTimeout: 60 * time.Second,
	RetryBudget: 2,
}

// Options configures a Coordinator using the functional options pattern.
type Options struct {
	Config Config

	// Callbacks receives lifecycle hooks. Defaults to an empty manager.
	Callbacks *CallbackManager

	// Tracer creates session and round spans. Defaults to the global
	// OpenTelemetry provider.
	Tracer trace.Tracer

	// Logger defaults to a NoOp logger.
	Logger logging.Logger

	// NewSessionID generates ids for requests that do not carry one.
	NewSessionID func() string
}

// Request describes one session to run.
type Request struct {
	// SessionID is optional; a time-sortable id is generated when empty.
	SessionID string

	Roster    *core.Roster
	Message   string
	MaxRounds int

	// Predicate ends the session normally when it matches a reply. Nil
	// means the session can only end by round limit or failure.
	Predicate Predicate

	// KickoffSpeaker attributes the kickoff entry. Defaults to
	// core.InitiatorID. A roster agent id makes rotation continue after it.
	KickoffSpeaker string
}

// Coordinator drives sessions. It is safe for concurrent use; each call to
// Run or StartSession owns its session exclusively.
type Coordinator struct {
	config    Config
	callbacks *CallbackManager
	tracer    trace.Tracer
	logger    logging.Logger
	newID     func() string

	active map[string]context.CancelFunc
	mu     sync.Mutex
}

// New creates a Coordinator with DefaultConfig and optional overrides.
func New(optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		Config:       DefaultConfig,
		Callbacks:    NewCallbackManager(),
		Logger:       logging.NoOpLogger{},
		NewSessionID: core.NewSessionID,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(TracerName)
	}
	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Config.RetryBudget < 0 {
		opts.Config.RetryBudget = 0
	}
	if opts.Config.CallTimeout <= 0 {
		opts.Config.CallTimeout = DefaultConfig.CallTimeout
	}

	return &Coordinator{
		config:    opts.Config,
		callbacks: opts.Callbacks,
		tracer:    opts.Tracer,
		logger:    opts.Logger,
		newID:     opts.NewSessionID,
		active:    make(map[string]context.CancelFunc),
	}
}

// Callbacks returns the coordinator's callback manager.
func (c *Coordinator) Callbacks() *CallbackManager { return c.callbacks }

// Config returns the effective configuration.
func (c *Coordinator) Config() Config { return c.config }

// StartSession runs a session to completion and returns its outcome.
func (c *Coordinator) StartSession(
	ctx context.Context,
	roster *core.Roster,
	message string,
	maxRounds int,
	predicate Predicate,
) core.Outcome {
	return c.Run(ctx, Request{Roster: roster, Message: message, MaxRounds: maxRounds, Predicate: predicate})
}

// Validate reports configuration errors of a request without running it.
func (c *Coordinator) Validate(req Request) error {
	if req.Roster == nil {
		return fmt.Errorf("%w: nil roster", core.ErrInvalidRoster)
	}
	if req.MaxRounds <= 0 {
		return fmt.Errorf("%w: max_rounds must be positive, got %d", core.ErrInvalidSession, req.MaxRounds)
	}
	if err := flow.Preflight(req.Roster); err != nil {
		return err
	}
	if _, err := flow.For(req.Roster.Rule()); err != nil {
		return err
	}
	return nil
}

// Cancel requests cancellation of a running session. The session observes
// it at the top of its next round.
func (c *Coordinator) Cancel(sessionID string) error {
	c.mu.Lock()
	cancel, exists := c.active[sessionID]
	c.mu.Unlock()

	if !exists {
		return fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}

	cancel()

	return nil
}

// Active returns the ids of sessions currently running.
func (c *Coordinator) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	return ids
}

// Run drives the session described by req and returns its terminal outcome.
func (c *Coordinator) Run(ctx context.Context, req Request) core.Outcome {
	id := req.SessionID
	if id == "" {
		id = c.newID()
	}

	ctx, span := c.tracer.Start(ctx, "metagen.session", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.Int("session.max_rounds", req.MaxRounds),
	))
	defer span.End()

	sess := core.NewSession(id, req.Roster, req.MaxRounds)
	log := c.logger

	if err := c.Validate(req); err != nil {
		return c.finish(ctx, span, sess, c.fail(sess, "", err))
	}
	span.SetAttributes(
		attribute.Int("session.agents", req.Roster.Len()),
		attribute.String("session.rotation_rule", req.Roster.Rule().String()),
	)

	selector, err := flow.For(req.Roster.Rule())
	if err != nil {
		return c.finish(ctx, span, sess, c.fail(sess, "", err))
	}

	kickoff := req.KickoffSpeaker
	if kickoff == "" {
		kickoff = core.InitiatorID
	}

	// First selection runs before anything is written so configuration
	// errors leave the transcript empty.
	var opening []core.TranscriptEntry
	if req.Message != "" {
		opening = []core.TranscriptEntry{{Round: 0, Speaker: kickoff, Content: req.Message}}
	}
	if _, err := selector.Next(req.Roster, opening); err != nil {
		return c.finish(ctx, span, sess, c.fail(sess, "", err))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := c.register(id, cancel); err != nil {
		return c.finish(ctx, span, sess, c.fail(sess, "", err))
	}
	defer c.unregister(id)

	if req.Message != "" {
		if err := sess.Kickoff(kickoff, req.Message); err != nil {
			return c.finish(ctx, span, sess, c.fail(sess, "", err))
		}
	}

	log.Info("session.start", "session_id", id, "agents", req.Roster.Len(),
		"rotation_rule", req.Roster.Rule().String(), "max_rounds", req.MaxRounds)

	if err := c.callbacks.ExecuteCallbacks(ctx, CallbackSessionStart, &CallbackContext{
		SessionID:  id,
		Transcript: sess.Transcript(),
	}); err != nil {
		return c.finish(ctx, span, sess, c.fail(sess, "", err))
	}

	limiter := core.NewCallLimiter(c.config.MaxCapabilityCalls)
	for sess.Status() == core.StatusRunning {
		c.runRound(ctx, sess, selector, req.Predicate, limiter)
	}

	return c.finish(ctx, span, sess, sess.Status())
}

// runRound executes exactly one round. It either appends one entry or moves
// the session to a terminal status.
func (c *Coordinator) runRound(
	ctx context.Context,
	sess *core.Session,
	selector flow.Selector,
	predicate Predicate,
	limiter *core.CallLimiter,
) {
	if ctx.Err() != nil {
		c.cancelled(ctx, sess)
		return
	}

	round := sess.CurrentRound() + 1
	history := sess.Transcript().Entries()

	speaker, err := selector.Next(sess.Roster, history)
	if err != nil {
		c.fail(sess, "", err)
		return
	}

	ctx, span := c.tracer.Start(ctx, "metagen.round", trace.WithAttributes(
		attribute.String("session.id", sess.ID),
		attribute.Int("round", round),
		attribute.String("agent.id", speaker.ID()),
	))
	defer span.End()

	if err := c.callbacks.ExecuteCallbacks(ctx, CallbackBeforeRound, &CallbackContext{
		SessionID:  sess.ID,
		Round:      round,
		AgentID:    speaker.ID(),
		Transcript: sess.Transcript(),
	}); err != nil {
		recordSpanError(span, err)
		c.fail(sess, "", err)
		return
	}

	start := time.Now()
	content, err := c.respond(ctx, sess.ID, round, speaker, history, limiter)
	if err != nil {
		recordSpanError(span, err)
		if ctx.Err() != nil {
			c.cancelled(ctx, sess)
			return
		}
		c.fail(sess, "", err)
		return
	}

	entry, err := sess.RecordTurn(speaker.ID(), content)
	if err != nil {
		recordSpanError(span, err)
		c.fail(sess, "", err)
		return
	}
	c.logger.Debug("session.round", "session_id", sess.ID, "round", entry.Round,
		"speaker", entry.Speaker, "duration", time.Since(start))

	switch {
	case predicate != nil && predicate(content):
		_ = sess.Complete(core.StatusCompletedNormally)
	case sess.CurrentRound() >= sess.MaxRounds:
		_ = sess.Complete(core.StatusCompletedByRoundLimit)
	}

	if err := c.callbacks.ExecuteCallbacks(ctx, CallbackAfterRound, &CallbackContext{
		SessionID:  sess.ID,
		Round:      entry.Round,
		AgentID:    entry.Speaker,
		Entry:      &entry,
		Transcript: sess.Transcript(),
	}); err != nil {
		if sess.Status() == core.StatusRunning {
			c.fail(sess, "", err)
			return
		}
		c.logger.Warn("session.callback.ignored", "session_id", sess.ID, "error", err.Error())
	}
	span.SetStatus(codes.Ok, "")
}

// respond calls the speaker's capability, retrying CapabilityErrors within
// the retry budget. Round accounting is untouched by retries.
func (c *Coordinator) respond(
	ctx context.Context,
	sessionID string,
	round int,
	speaker core.Agent,
	history []core.TranscriptEntry,
	limiter *core.CallLimiter,
) (string, error) {
	var lastErr error
	attempts := c.config.RetryBudget + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err := limiter.Increment(); err != nil {
			return "", err
		}

		start := time.Now()
		content, err := c.invoke(ctx, speaker, history)
		dur := time.Since(start)
		if err == nil {
			c.logger.Debug("capability.call", "session_id", sessionID, "agent", speaker.ID(),
				"round", round, "attempt", attempt, "duration", dur)
			return content, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = &core.CapabilityError{AgentID: speaker.ID(), Round: round, Attempt: attempt, Err: err}
		c.logger.Warn("capability.call.failed", "session_id", sessionID, "agent", speaker.ID(),
			"round", round, "attempt", attempt, "duration", dur, "error", err.Error())

		if attempt == attempts {
			break
		}
		if cbErr := c.callbacks.ExecuteCallbacks(ctx, CallbackOnRetry, &CallbackContext{
			SessionID: sessionID,
			Round:     round,
			AgentID:   speaker.ID(),
			Attempt:   attempt,
			Err:       lastErr,
		}); cbErr != nil {
			return "", cbErr
		}
		if err := sleep(ctx, c.config.RetryDelay); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

type callResult struct {
	content string
	err     error
}

// invoke performs one bounded capability call. The provider runs on its own
// goroutine so a provider that ignores ctx cannot stall the session.
func (c *Coordinator) invoke(ctx context.Context, speaker core.Agent, history []core.TranscriptEntry) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.CallTimeout)
	defer cancel()

	ctxHistory := make([]core.TranscriptEntry, len(history))
	copy(ctxHistory, history)

	resCh := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- callResult{err: fmt.Errorf("capability panicked: %v", r)}
			}
		}()
		content, err := speaker.Respond(callCtx, ctxHistory)
		resCh <- callResult{content: content, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			return "", res.err
		}
		if strings.TrimSpace(res.content) == "" {
			return "", core.ErrEmptyResponse
		}
		return res.content, nil
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("call timed out after %s: %w", c.config.CallTimeout, callCtx.Err())
		}
		return "", callCtx.Err()
	}
}

func (c *Coordinator) cancelled(ctx context.Context, sess *core.Session) {
	cause := core.ErrCancelled
	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cause = fmt.Errorf("%w: %w", core.ErrCancelled, err)
	}
	c.fail(sess, core.ErrCancelled.Error(), cause)
}

func (c *Coordinator) fail(sess *core.Session, reason string, cause error) core.Status {
	if err := sess.Fail(reason, cause); err != nil {
		c.logger.Warn("session.fail.ignored", "session_id", sess.ID, "error", err.Error())
	}
	return sess.Status()
}

func (c *Coordinator) finish(ctx context.Context, span trace.Span, sess *core.Session, status core.Status) core.Outcome {
	out := core.Report(sess)

	span.SetAttributes(
		attribute.String("session.status", status.String()),
		attribute.Int("session.rounds", out.Rounds),
	)
	if status == core.StatusFailed {
		span.SetStatus(codes.Error, out.FailureReason)
		if out.Err != nil {
			span.RecordError(out.Err)
		}
		c.logger.Warn("session.end", "session_id", out.SessionID, "status", status.String(),
			"rounds", out.Rounds, "reason", out.FailureReason)
	} else {
		span.SetStatus(codes.Ok, "")
		c.logger.Info("session.end", "session_id", out.SessionID, "status", status.String(),
			"rounds", out.Rounds, "duration", out.Duration())
	}

	// Cancellation of the session context must not suppress end callbacks.
	if err := c.callbacks.ExecuteCallbacks(context.WithoutCancel(ctx), CallbackSessionEnd, &CallbackContext{
		SessionID:  out.SessionID,
		Round:      out.Rounds,
		Outcome:    &out,
		Transcript: out.Transcript,
	}); err != nil {
		c.logger.Warn("session.callback.ignored", "session_id", out.SessionID, "error", err.Error())
	}

	return out
}

func (c *Coordinator) register(id string, cancel context.CancelFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.active[id]; exists {
		return fmt.Errorf("%w: session %s is already running", core.ErrInvalidSession, id)
	}
	c.active[id] = cancel
	return nil
}

func (c *Coordinator) unregister(id string) {
	c.mu.Lock()
	delete(c.active, id)
	c.mu.Unlock()
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
