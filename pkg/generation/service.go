package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/logging"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/metrics"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/resilience"
)

// Store persists generated records.
type Store interface {
	SaveInterview(ctx context.Context, iv interview.Interview) (interview.SaveResult, error)
	SaveFeedback(ctx context.Context, fb interview.Feedback) (string, error)
}

// Options tunes retries and breaking shared by both services.
type Options struct {
	Retry    resilience.RetryPolicy
	Breaker  *resilience.CircuitBreaker
	Observer metrics.Observer
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service generates feedback reports and interviews with a Model and
// persists them through a Store.
type Service struct {
	model   Model
	store   Store
	retry   resilience.RetryPolicy
	breaker *resilience.CircuitBreaker
	obs     metrics.Observer
	log     *slog.Logger
	now     func() time.Time
}

func New(model Model, store Store, opts Options) *Service {
	if opts.Retry.MaxRetries == 0 && opts.Retry.Backoff == 0 {
		opts.Retry = resilience.NewRetryPolicy(2, 300*time.Millisecond)
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker(3, 30*time.Second)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		model:   model,
		store:   store,
		retry:   opts.Retry,
		breaker: opts.Breaker,
		obs:     metrics.OrNoop(opts.Observer),
		log:     logging.NewComponentLogger(opts.Logger, "generation"),
		now:     opts.Now,
	}
}

// generate runs p through the breaker and retry policy and decodes the
// validated output into out.
func (s *Service) generate(ctx context.Context, op string, p Prompt, decode func(string) error) error {
	if wait := s.breaker.RetryAfter(); wait > 0 {
		s.record(metrics.EventBreakerDenied, op)
		return errorsx.Wrap(resilience.RateLimitError{
			Provider:   s.model.Name(),
			Message:    "generation degraded",
			RetryAfter: wait,
		}, errorsx.ReasonGenerateRateLimit)
	}
	start := s.now()
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		raw, err := s.model.Generate(ctx, p)
		if err != nil {
			return resilience.AsRateLimit(s.model.Name(), err)
		}
		return decode(raw)
	})
	if err != nil {
		if s.breaker.OnError(err) {
			s.record(metrics.EventBreakerOpen, op)
			s.log.Warn("generation_breaker_open", slog.String("op", op))
		}
		if resilience.IsRateLimit(err) {
			return errorsx.Wrap(err, errorsx.ReasonGenerateRateLimit)
		}
		return err
	}
	s.breaker.OnSuccess()
	s.log.Debug("generation_done", slog.String("op", op), slog.Duration("elapsed", s.now().Sub(start)))
	return nil
}

func (s *Service) record(name, op string) {
	s.obs.RecordEvent(metrics.MetricsEvent{
		Name: name,
		Time: s.now(),
		Tags: map[string]string{"provider": s.model.Name(), "op": op},
	})
}
