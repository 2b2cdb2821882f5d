package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/metrics"
)

// Outcomes reported on metrics.EventOutcome.
const (
	OutcomeFeedback         = "feedback"
	OutcomeGenerated        = "interview_generated"
	OutcomeFallbackFeedback = "fallback_feedback"
	OutcomeExhausted        = "exhausted"
	OutcomeSuperseded       = "superseded"
)

const (
	noticeGenerated = "Interview generated successfully! Redirecting to your interviews..."
	noticeExhausted = "We couldn't process your interview results. Please try again later."
)

var errSuperseded = errors.New("attempt superseded")

type attemptRun struct {
	token      uint64
	attemptID  string
	transcript []TranscriptEntry
	log        *slog.Logger
}

// onFinished starts terminal handling once per attempt.
func (c *Controller) onFinished(ch StateChange) {
	c.mu.Lock()
	if c.closed || c.terminalFired == ch.token || ch.token != c.attempt {
		c.mu.Unlock()
		return
	}
	c.terminalFired = ch.token
	run := attemptRun{
		token:      ch.token,
		attemptID:  ch.Attempt,
		transcript: append([]TranscriptEntry(nil), c.transcript...),
	}
	c.mu.Unlock()
	run.log = c.log.With(slog.String("attempt", run.attemptID), slog.String("mode", string(c.sctx.Mode)))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runTerminal(run)
	}()
}

func (c *Controller) current(token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.attempt == token
}

func (c *Controller) runTerminal(run attemptRun) {
	ctx := c.ctx
	c.record(metrics.EventTerminal, run.attemptID, map[string]string{"mode": string(c.sctx.Mode)},
		map[string]any{"entries": len(run.transcript)})
	run.log.Info("terminal_handler", slog.Int("entries", len(run.transcript)))

	var err error
	if c.sctx.Mode == ModeGenerate {
		err = c.generateInterview(ctx, run)
	} else {
		err = c.createFeedback(ctx, run)
	}
	if err == nil {
		return
	}
	if errors.Is(err, errSuperseded) {
		c.outcome(run, OutcomeSuperseded)
		return
	}
	run.log.Warn("terminal_primary_failed",
		errorsx.Attr(err),
		slog.String("error", err.Error()),
	)
	c.cascade(ctx, run)
}

func (c *Controller) generateInterview(ctx context.Context, run attemptRun) error {
	if c.deps.Generator == nil {
		return errorsx.Errorf(errorsx.ReasonInterviewGenerate, "no interview generator configured")
	}
	req := interview.NewGenerateRequest(c.sctx.UserID, run.transcript)
	resp, err := c.deps.Generator.GenerateInterview(ctx, req)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonInterviewGenerate)
	}
	if !resp.Success {
		return errorsx.Errorf(errorsx.ReasonInterviewGenerate, "interview generation unsuccessful: %s", resp.Error)
	}
	if !c.current(run.token) {
		return errSuperseded
	}
	run.log.Info("interview_generated", slog.String("interview_id", resp.InterviewID))
	c.notify(noticeGenerated)
	c.navigate(c.opts.InterviewsRoute)
	c.outcome(run, OutcomeGenerated)
	return nil
}

func (c *Controller) createFeedback(ctx context.Context, run attemptRun) error {
	if c.sctx.InterviewID == "" {
		return errorsx.Errorf(errorsx.ReasonFeedbackGenerate, "no interview id for feedback")
	}
	id, err := c.requestFeedback(ctx, interview.FeedbackRequest{
		InterviewID: c.sctx.InterviewID,
		UserID:      c.sctx.UserID,
		Transcript:  run.transcript,
		FeedbackID:  c.sctx.FeedbackID,
	})
	if err != nil {
		return err
	}
	if !c.current(run.token) {
		return errSuperseded
	}
	run.log.Info("feedback_created", slog.String("feedback_id", id))
	c.navigate(FeedbackRoute(c.sctx.InterviewID))
	c.outcome(run, OutcomeFeedback)
	return nil
}

func (c *Controller) requestFeedback(ctx context.Context, req interview.FeedbackRequest) (string, error) {
	if c.deps.Feedback == nil {
		return "", errorsx.Errorf(errorsx.ReasonFeedbackGenerate, "no feedback service configured")
	}
	resp, err := c.deps.Feedback.CreateFeedback(ctx, req)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonFeedbackGenerate)
	}
	if !resp.Success || resp.FeedbackID == "" {
		return "", errorsx.Errorf(errorsx.ReasonFeedbackGenerate, "feedback service returned no feedback")
	}
	return resp.FeedbackID, nil
}

// cascade synthesizes and persists a stand-in interview and requests
// feedback for it. Steps run strictly in order; any failure ends the attempt
// with a notice and a return to the home route.
func (c *Controller) cascade(ctx context.Context, run attemptRun) {
	pick := c.deps.Picker
	iv := interview.Synthesize(c.sctx.UserID, run.transcript, pick)
	c.step(run, "synthesize", nil, map[string]any{"role": iv.Role, "level": iv.Level, "questions": len(iv.Questions)})
	if !c.current(run.token) {
		c.outcome(run, OutcomeSuperseded)
		return
	}

	interviewID, err := c.persist(ctx, iv)
	c.step(run, "persist", err, map[string]any{"interview_id": interviewID})
	if err != nil {
		c.exhaust(run, err)
		return
	}
	if !c.current(run.token) {
		c.outcome(run, OutcomeSuperseded)
		return
	}

	feedbackID, err := c.requestFeedback(ctx, interview.FeedbackRequest{
		InterviewID: interviewID,
		UserID:      c.sctx.UserID,
		Transcript:  run.transcript,
	})
	c.step(run, "feedback", err, map[string]any{"feedback_id": feedbackID})
	if err != nil {
		c.exhaust(run, err)
		return
	}
	if !c.current(run.token) {
		c.outcome(run, OutcomeSuperseded)
		return
	}
	run.log.Info("fallback_feedback_created",
		slog.String("interview_id", interviewID),
		slog.String("feedback_id", feedbackID),
	)
	c.navigate(FeedbackRoute(interviewID))
	c.outcome(run, OutcomeFallbackFeedback)
}

func (c *Controller) persist(ctx context.Context, iv interview.Interview) (string, error) {
	if c.deps.Store == nil {
		return "", errorsx.Errorf(errorsx.ReasonInterviewPersist, "no interview store configured")
	}
	res, err := c.deps.Store.SaveInterview(ctx, iv)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonInterviewPersist)
	}
	if !res.Success || res.InterviewID == "" {
		return "", errorsx.Errorf(errorsx.ReasonInterviewPersist, "interview store returned no id")
	}
	return res.InterviewID, nil
}

func (c *Controller) exhaust(run attemptRun, cause error) {
	if !c.current(run.token) {
		c.outcome(run, OutcomeSuperseded)
		return
	}
	reason := errorsx.Reason(cause)
	run.log.Error("fallback_exhausted",
		errorsx.Attr(cause),
		slog.String("error", cause.Error()),
	)
	c.record(metrics.EventCascadeExhausted, run.attemptID,
		map[string]string{"reason": string(reason), "stage": reason.Stage()},
		map[string]any{"error": cause.Error()})
	c.notify(noticeExhausted)
	c.navigate(c.opts.HomeRoute)
	c.outcome(run, OutcomeExhausted)
}

func (c *Controller) step(run attemptRun, name string, err error, fields map[string]any) {
	result := "ok"
	if err != nil {
		result = "failed"
		fields["error"] = err.Error()
	}
	run.log.Info("fallback_step", slog.String("step", name), slog.String("result", result))
	c.record(metrics.EventCascadeStep, run.attemptID, map[string]string{"step": name, "result": result}, fields)
}

func (c *Controller) outcome(run attemptRun, outcome string) {
	c.obs.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventOutcome,
		Time: time.Now(),
		Tags: map[string]string{"attempt": run.attemptID, "outcome": outcome, "mode": string(c.sctx.Mode)},
	})
	run.log.Info("attempt_outcome", slog.String("outcome", outcome))
}
