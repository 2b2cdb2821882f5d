// Package session drives one mock-interview attempt at a time: it opens the
// voice channel and the telemetry side channel, accumulates the transcript,
// classifies channel errors and, once the call finishes, produces feedback or
// a new interview through a fallback cascade that always ends in navigation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/besteffort"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/channel"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/logging"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/metrics"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/redact"
)

var (
	ErrBlockingError  = errors.New("call refused: resolve the current error first")
	ErrNotInitialized = errors.New("call refused: voice channel not initialized")
	ErrCallInProgress = errors.New("call refused: an attempt is already in progress")
	ErrClosed         = errors.New("session controller closed")
)

const (
	noticeBlocking       = "Please resolve the call error and try again"
	noticeNotInitialized = "The voice channel is not initialized. Please wait a moment and try again."
)

// View is a consistent snapshot of the controller for rendering.
type View struct {
	State       CallState
	Transcript  []TranscriptEntry
	LastMessage string
	Speaking    bool
	Error       *ErrorState
	Attempt     string
}

// String renders a View for console display.
func (v View) String() string {
	errText := "none"
	if v.Error != nil {
		errText = fmt.Sprintf("%s (%s)", v.Error.Message, v.Error.Category)
	}
	return fmt.Sprintf("state=%s entries=%d speaking=%t error=%s", v.State, len(v.Transcript), v.Speaking, errText)
}

// Controller owns the call lifecycle of one mounted interview page.
type Controller struct {
	sctx Context
	deps Deps
	opts Options
	log  *slog.Logger
	obs  metrics.Observer

	mu          sync.Mutex
	state       CallState
	transcript  []TranscriptEntry
	lastMessage string
	speaking    bool
	errState    *ErrorState
	// attempt is bumped by every new attempt and by resets; work started for
	// an older value must not act.
	attempt       uint64
	attemptID     string
	terminalFired uint64
	opening       bool
	attached      bool
	unsubscribe   func()
	listeners     []StateListener
	closed        bool
	// telStart is the side-channel start of the current attempt, if any.
	telStart *telemetryStart

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a controller for sctx. deps.Channel must be non-nil.
func New(sctx Context, deps Deps, opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		sctx:   sctx.clone(),
		deps:   deps,
		opts:   opts.withDefaults(),
		log:    logging.NewComponentLogger(deps.Logger, "session"),
		obs:    metrics.OrNoop(deps.Observer),
		state:  StateIdle,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Attach subscribes the controller to its channel. Calls are refused until
// Attach has run. Attach is idempotent.
func (c *Controller) Attach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attached || c.closed || c.deps.Channel == nil {
		return
	}
	c.unsubscribe = c.deps.Channel.Subscribe(c.HandleEvent)
	c.attached = true
	c.log.Debug("channel_attached", slog.String("channel", c.deps.Channel.Name()))
}

// Detach removes the channel subscription.
func (c *Controller) Detach() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.attached = false
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
		c.log.Debug("channel_detached")
	}
}

// AddListener registers a listener for state changes.
func (c *Controller) AddListener(l StateListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// StartCall begins a new attempt. It returns once the channel open has
// resolved; the call becomes Active when the channel reports it.
func (c *Controller) StartCall(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.errState != nil:
		c.mu.Unlock()
		c.notify(noticeBlocking)
		return ErrBlockingError
	case !c.attached:
		c.mu.Unlock()
		c.notify(noticeNotInitialized)
		return ErrNotInitialized
	case c.opening || c.state == StateConnecting || c.state == StateActive:
		c.mu.Unlock()
		return ErrCallInProgress
	}

	var changes []StateChange
	if c.state == StateFinished {
		if ch, err := c.transitionLocked(StateIdle, "new attempt"); err == nil {
			changes = append(changes, ch)
		}
	}
	c.attempt++
	token := c.attempt
	c.attemptID = uuid.NewString()
	attemptID := c.attemptID
	c.clearAttemptLocked()
	ch, err := c.transitionLocked(StateConnecting, "start call")
	if err != nil {
		c.mu.Unlock()
		c.emit(changes)
		return err
	}
	changes = append(changes, ch)
	c.opening = true
	c.mu.Unlock()
	c.emit(changes)

	log := c.log.With(slog.String("attempt", attemptID), slog.String("mode", string(c.sctx.Mode)))
	log.Info("call_start")
	c.startTelemetry(log, token)

	target, vars := c.callParams()
	openErr := c.deps.Channel.Start(ctx, target, vars)

	c.mu.Lock()
	c.opening = false
	live := token == c.attempt && (c.state == StateConnecting || c.state == StateActive)
	if openErr != nil {
		if !live {
			c.mu.Unlock()
			log.Info("call_open_failed_after_end", slog.String("error", openErr.Error()))
			return errorsx.Wrap(openErr, errorsx.ReasonChannelOpen)
		}
		es := openFailure(openErr.Error())
		c.errState = &es
		ch, terr := c.transitionLocked(StateIdle, "channel open failed")
		c.mu.Unlock()
		if terr == nil {
			c.emit([]StateChange{ch})
		}
		log.Warn("call_open_failed", slog.String("error", openErr.Error()))
		c.record(metrics.EventCallOpenFailed, attemptID, nil, map[string]any{"error": openErr.Error()})
		c.teardownAsync(log, false)
		return errorsx.Wrap(openErr, errorsx.ReasonChannelOpen)
	}
	if !live {
		c.mu.Unlock()
		// The attempt ended while the open was pending.
		log.Info("call_open_resolved_after_end")
		c.teardownAsync(log, true)
		return nil
	}
	c.mu.Unlock()
	log.Debug("call_open_resolved")
	return nil
}

// EndCall finishes the current attempt. The state is Finished when EndCall
// begins teardown; telemetry stop is bounded by TelemetryStopTimeout and its
// failure is only logged. Telemetry and channel stop run independently.
func (c *Controller) EndCall(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	var changes []StateChange
	if c.state == StateConnecting || c.state == StateActive {
		if ch, err := c.transitionLocked(StateFinished, "end call"); err == nil {
			changes = append(changes, ch)
		}
	}
	attemptID := c.attemptID
	c.mu.Unlock()
	c.emit(changes)

	log := c.log.With(slog.String("attempt", attemptID))
	log.Info("call_end")
	c.teardown(ctx, log, true, c.takeTelemetryStart())
}

// ResetForRetry clears the error and transcript and returns to Idle. Work
// still running for the previous attempt is discarded. Calling it again has
// no further effect.
func (c *Controller) ResetForRetry() {
	c.mu.Lock()
	var changes []StateChange
	live := c.state == StateConnecting || c.state == StateActive
	if c.state != StateIdle {
		if ch, err := c.transitionLocked(StateIdle, "reset for retry"); err == nil {
			changes = append(changes, ch)
		}
	}
	if c.errState != nil || len(c.transcript) > 0 || c.lastMessage != "" || c.speaking || len(changes) > 0 {
		c.attempt++
	}
	c.errState = nil
	c.clearAttemptLocked()
	attemptID := c.attemptID
	c.mu.Unlock()
	c.emit(changes)
	if live {
		log := c.log.With(slog.String("attempt", attemptID))
		log.Warn("reset_during_call")
		c.teardownAsync(log, true)
	}
}

// RetryWithNewCall resets and, after RetryDelay, starts a new call.
func (c *Controller) RetryWithNewCall(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ResetForRetry()
	if c.opts.RetryDelay > 0 {
		timer := time.NewTimer(c.opts.RetryDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return ErrClosed
		case <-timer.C:
		}
	}
	return c.StartCall(ctx)
}

// HandleEvent applies one channel event. It is the controller's only
// channel subscription and is safe to call from any goroutine.
func (c *Controller) HandleEvent(ev channel.Event) {
	switch e := ev.(type) {
	case channel.CallStarted:
		c.mu.Lock()
		ch, err := c.transitionLocked(StateActive, "channel opened")
		if err == nil {
			c.errState = nil
		}
		c.mu.Unlock()
		if err != nil {
			c.log.Debug("call_started_ignored", slog.String("error", err.Error()))
			return
		}
		c.emit([]StateChange{ch})

	case channel.CallEnded:
		c.mu.Lock()
		ch, err := c.transitionLocked(StateFinished, "channel closed")
		c.mu.Unlock()
		if err != nil {
			c.log.Debug("call_ended_ignored", slog.String("error", err.Error()))
			return
		}
		c.emit([]StateChange{ch})

	case channel.Message:
		if !e.IsFinalTranscript() {
			return
		}
		entry := TranscriptEntry{Role: interview.ParseRole(e.Role), Content: e.Transcript}
		c.mu.Lock()
		if c.state != StateConnecting && c.state != StateActive {
			// A dead or finished call; the evaluated transcript is already fixed.
			state := c.state
			c.mu.Unlock()
			c.log.Debug("transcript_dropped", slog.String("state", state.String()), slog.String("role", string(entry.Role)))
			return
		}
		c.transcript = append(c.transcript, entry)
		c.lastMessage = entry.Content
		n := len(c.transcript)
		attemptID := c.attemptID
		c.mu.Unlock()
		c.log.Debug("transcript_final",
			slog.String("attempt", attemptID),
			slog.String("role", string(entry.Role)),
			slog.String("content", redact.Preview(entry.Content, c.sctx.UserName)),
			slog.Int("entries", n),
		)
		c.record(metrics.EventTranscript, attemptID, map[string]string{"role": string(entry.Role)}, nil)

	case channel.SpeechStarted:
		c.setSpeaking(true)

	case channel.SpeechEnded:
		c.setSpeaking(false)

	case channel.Error:
		c.handleChannelError(e)

	default:
		c.log.Debug("channel_event_ignored", slog.Any("event", ev))
	}
}

func (c *Controller) handleChannelError(e channel.Error) {
	es := Classify(e.Message())
	c.mu.Lock()
	c.errState = &es
	var changes []StateChange
	if es.Category == CategoryConnection && (c.state == StateConnecting || c.state == StateActive) {
		if ch, err := c.transitionLocked(StateIdle, "connection error"); err == nil {
			changes = append(changes, ch)
		}
	}
	attemptID := c.attemptID
	c.mu.Unlock()

	log := c.log.With(slog.String("attempt", attemptID))
	log.Warn("channel_error",
		slog.String("category", string(es.Category)),
		slog.String("error", e.Message()),
	)
	c.record(metrics.EventChannelError, attemptID, map[string]string{"category": string(es.Category)}, nil)
	c.emit(changes)
	if len(changes) > 0 {
		// The channel is assumed dead; release it so a retry can open again.
		c.teardownAsync(log, true)
	}
}

func (c *Controller) setSpeaking(v bool) {
	c.mu.Lock()
	c.speaking = v
	c.mu.Unlock()
}

// View returns a snapshot of the controller.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		State:       c.state,
		Transcript:  append([]TranscriptEntry(nil), c.transcript...),
		LastMessage: c.lastMessage,
		Speaking:    c.speaking,
		Attempt:     c.attemptID,
	}
	if c.errState != nil {
		es := *c.errState
		v.Error = &es
	}
	return v
}

func (c *Controller) State() CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Transcript() []TranscriptEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TranscriptEntry(nil), c.transcript...)
}

func (c *Controller) LastMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMessage
}

func (c *Controller) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// Error returns the current error, or nil.
func (c *Controller) Error() *ErrorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errState == nil {
		return nil
	}
	es := *c.errState
	return &es
}

// Wait blocks until background work (terminal handling and teardown) has
// finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Drain waits for background work; it satisfies runner.Drainer.
func (c *Controller) Drain() error {
	c.Wait()
	return nil
}

// Close detaches from the channel, cancels background work and waits for it.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.Detach()
	c.cancel()
	c.wg.Wait()
}

// transitionLocked validates and applies a transition; c.mu must be held.
func (c *Controller) transitionLocked(to CallState, reason string) (StateChange, error) {
	from := c.state
	if !transitionValid(from, to) {
		return StateChange{}, &InvalidTransitionError{From: from, To: to}
	}
	c.state = to
	return StateChange{
		From:      from,
		To:        to,
		Timestamp: time.Now(),
		Reason:    reason,
		Attempt:   c.attemptID,
		token:     c.attempt,
	}, nil
}

func (c *Controller) clearAttemptLocked() {
	c.transcript = nil
	c.lastMessage = ""
	c.speaking = false
}

// emit publishes changes to listeners and metrics and starts the terminal
// handler on entry to Finished. c.mu must not be held.
func (c *Controller) emit(changes []StateChange) {
	if len(changes) == 0 {
		return
	}
	c.mu.Lock()
	listeners := make([]StateListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, ch := range changes {
		c.log.Info("call_state_change",
			slog.String("attempt", ch.Attempt),
			slog.String("from", ch.From.String()),
			slog.String("to", ch.To.String()),
			slog.String("reason", ch.Reason),
		)
		c.obs.RecordEvent(metrics.MetricsEvent{
			Name: metrics.EventStateChange,
			Time: ch.Timestamp,
			Tags: map[string]string{
				"attempt": ch.Attempt,
				"from":    ch.From.String(),
				"to":      ch.To.String(),
			},
			Fields: map[string]any{"reason": ch.Reason},
		})
		for _, l := range listeners {
			l.OnStateChange(ch)
		}
		if ch.To == StateFinished {
			c.onFinished(ch)
		}
	}
}

func (c *Controller) callParams() (channel.Target, map[string]any) {
	if c.sctx.Mode == ModeGenerate {
		return channel.Target{Kind: channel.TargetWorkflow, ID: c.opts.WorkflowID},
			map[string]any{"username": c.sctx.UserName, "userid": c.sctx.UserID}
	}
	return channel.Target{Kind: channel.TargetAssistant, ID: c.opts.InterviewerID},
		map[string]any{"questions": interview.FormatQuestions(c.sctx.Questions)}
}

// telemetryStart is one attempt's pending side-channel start. done closes
// when the client's Start has returned, even if besteffort gave up on it.
type telemetryStart struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// settle cancels the start and waits for it to return, at most timeout.
func (ts *telemetryStart) settle(ctx context.Context, timeout time.Duration) bool {
	ts.cancel()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ts.done:
		return true
	case <-timer.C:
	case <-ctx.Done():
	}
	return false
}

func (c *Controller) startTelemetry(log *slog.Logger, token uint64) {
	tel := c.deps.Telemetry
	if tel == nil {
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	ts := &telemetryStart{cancel: cancel, done: make(chan struct{})}
	c.mu.Lock()
	if token != c.attempt || (c.state != StateConnecting && c.state != StateActive) {
		// Ended before telemetry was due; its teardown has already run.
		c.mu.Unlock()
		cancel()
		return
	}
	c.telStart = ts
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		res := besteffort.Do(ctx, log, "telemetry_start", c.opts.TelemetryStartTimeout, func(ctx context.Context) error {
			defer close(ts.done)
			return tel.Start(ctx)
		})
		if errors.Is(res.Err, context.Canceled) {
			log.Debug("telemetry_start_cancelled")
			return
		}
		c.recordBestEffort(res)
	}()
}

// takeTelemetryStart hands the pending start to a teardown. It must be
// called by the goroutine that decided to tear down, before any new attempt
// can replace it.
func (c *Controller) takeTelemetryStart() *telemetryStart {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.telStart
	c.telStart = nil
	return ts
}

// teardown stops telemetry and, when stopChannel is set, the voice channel.
// Both run even if the other fails or hangs. A pending telemetry start is
// cancelled and awaited first so Stop releases whatever it opened.
func (c *Controller) teardown(ctx context.Context, log *slog.Logger, stopChannel bool, ts *telemetryStart) {
	var g errgroup.Group
	if tel := c.deps.Telemetry; tel != nil {
		g.Go(func() error {
			if ts != nil && !ts.settle(ctx, c.opts.TelemetryStopTimeout) {
				log.Warn("telemetry_start_unsettled", slog.Duration("timeout", c.opts.TelemetryStopTimeout))
			}
			res := besteffort.Do(ctx, log, "telemetry_stop", c.opts.TelemetryStopTimeout, tel.Stop)
			c.recordBestEffort(res)
			return nil
		})
	}
	if stopChannel && c.deps.Channel != nil {
		g.Go(func() error {
			res := besteffort.Do(ctx, log, "channel_stop", 0, func(context.Context) error {
				return errorsx.Wrap(c.deps.Channel.Stop(), errorsx.ReasonChannelStop)
			})
			c.recordBestEffort(res)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Controller) teardownAsync(log *slog.Logger, stopChannel bool) {
	ts := c.takeTelemetryStart()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.teardown(context.WithoutCancel(c.ctx), log, stopChannel, ts)
	}()
}

func (c *Controller) recordBestEffort(res besteffort.Result) {
	if res.OK() {
		return
	}
	c.obs.RecordEvent(metrics.MetricsEvent{
		Name:   metrics.EventBestEffortFailed,
		Time:   time.Now(),
		Value:  float64(res.Elapsed.Milliseconds()),
		Tags:   map[string]string{"op": res.Op},
		Fields: map[string]any{"error": res.Err.Error(), "timed_out": res.TimedOut},
	})
}

func (c *Controller) record(name, attemptID string, tags map[string]string, fields map[string]any) {
	if tags == nil {
		tags = map[string]string{}
	}
	tags["attempt"] = attemptID
	c.obs.RecordEvent(metrics.MetricsEvent{Name: name, Time: time.Now(), Tags: tags, Fields: fields})
}

func (c *Controller) notify(msg string) {
	if c.deps.Notifier != nil {
		c.deps.Notifier.Notify(msg)
	}
}

func (c *Controller) navigate(path string) {
	if c.deps.Navigator != nil {
		c.deps.Navigator.Navigate(path)
	}
}
