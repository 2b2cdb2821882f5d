package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/channel/mock"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/logging"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/metrics"
)

// journal records calls across fakes so tests can assert ordering.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.entries = append(j.entries, s)
	j.mu.Unlock()
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeTelemetry struct {
	j        *journal
	startErr error
	stopErr  error
	// startGate, when set, holds Start until it closes or ctx ends.
	startGate chan struct{}
	// stopBlock, when set, makes Stop wait for it to close (ignoring ctx).
	stopBlock  chan struct{}
	stopCalled chan struct{}

	mu     sync.Mutex
	starts int
	stops  int
}

func newFakeTelemetry(j *journal) *fakeTelemetry {
	return &fakeTelemetry{j: j, stopCalled: make(chan struct{}, 8)}
}

func (f *fakeTelemetry) Start(ctx context.Context) error {
	f.mu.Lock()
	f.starts++
	f.mu.Unlock()
	f.j.add("telemetry_start")
	if f.startGate != nil {
		select {
		case <-f.startGate:
		case <-ctx.Done():
			f.j.add("telemetry_start_returned")
			return ctx.Err()
		}
	}
	return f.startErr
}

func (f *fakeTelemetry) Stop(context.Context) error {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	f.j.add("telemetry_stop")
	select {
	case f.stopCalled <- struct{}{}:
	default:
	}
	if f.stopBlock != nil {
		<-f.stopBlock
	}
	return f.stopErr
}

func (f *fakeTelemetry) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

type fakeFeedback struct {
	j    *journal
	resp func(req interview.FeedbackRequest) (interview.FeedbackResponse, error)
	gate chan struct{}

	mu   sync.Mutex
	reqs []interview.FeedbackRequest
}

func (f *fakeFeedback) CreateFeedback(ctx context.Context, req interview.FeedbackRequest) (interview.FeedbackResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	f.j.add("feedback:" + req.InterviewID)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return interview.FeedbackResponse{}, ctx.Err()
		}
	}
	if f.resp == nil {
		return interview.FeedbackResponse{Success: true, FeedbackID: "fb-1"}, nil
	}
	return f.resp(req)
}

func (f *fakeFeedback) requests() []interview.FeedbackRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interview.FeedbackRequest(nil), f.reqs...)
}

type fakeGenerator struct {
	j    *journal
	resp interview.GenerateResponse
	err  error

	mu   sync.Mutex
	reqs []interview.GenerateRequest
}

func (f *fakeGenerator) GenerateInterview(_ context.Context, req interview.GenerateRequest) (interview.GenerateResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	f.j.add("generate")
	return f.resp, f.err
}

type fakeStore struct {
	j   *journal
	err error
	id  string

	mu    sync.Mutex
	saved []interview.Interview
}

func (f *fakeStore) SaveInterview(_ context.Context, iv interview.Interview) (interview.SaveResult, error) {
	f.mu.Lock()
	f.saved = append(f.saved, iv)
	f.mu.Unlock()
	f.j.add("persist")
	if f.err != nil {
		return interview.SaveResult{}, f.err
	}
	id := f.id
	if id == "" {
		id = "synth-1"
	}
	return interview.SaveResult{Success: true, InterviewID: id}, nil
}

func (f *fakeStore) interviews() []interview.Interview {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interview.Interview(nil), f.saved...)
}

type recorder struct {
	j     *journal
	mu    sync.Mutex
	paths []string
	notes []string
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.j.add("navigate:" + path)
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	r.notes = append(r.notes, msg)
	r.mu.Unlock()
	r.j.add("notify")
}

func (r *recorder) navigations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notes...)
}

type stateLog struct {
	mu      sync.Mutex
	changes []StateChange
}

func (s *stateLog) OnStateChange(ev StateChange) {
	s.mu.Lock()
	s.changes = append(s.changes, ev)
	s.mu.Unlock()
}

func (s *stateLog) path() []CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []CallState
	for i, ch := range s.changes {
		if i == 0 {
			out = append(out, ch.From)
		}
		out = append(out, ch.To)
	}
	return out
}

type harness struct {
	t         *testing.T
	ch        *mock.Channel
	tel       *fakeTelemetry
	feedback  *fakeFeedback
	generator *fakeGenerator
	store     *fakeStore
	rec       *recorder
	obs       *metrics.MemoryObserver
	states    *stateLog
	j         *journal
	c         *Controller
}

func newHarness(t *testing.T, sctx Context, opts Options) *harness {
	t.Helper()
	return newHarnessWithTelemetry(t, sctx, opts, nil)
}

// newHarnessWithTelemetry uses tel as the side channel instead of the fake.
func newHarnessWithTelemetry(t *testing.T, sctx Context, opts Options, tel SideChannel) *harness {
	t.Helper()
	j := &journal{}
	h := &harness{
		t:         t,
		ch:        mock.New(),
		tel:       newFakeTelemetry(j),
		feedback:  &fakeFeedback{j: j},
		generator: &fakeGenerator{j: j, resp: interview.GenerateResponse{Success: true, InterviewID: "gen-1"}},
		store:     &fakeStore{j: j},
		rec:       &recorder{j: j},
		obs:       metrics.NewMemoryObserver(),
		states:    &stateLog{},
		j:         j,
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = -1
	}
	if tel == nil {
		tel = h.tel
	}
	h.c = New(sctx, Deps{
		Channel:   h.ch,
		Telemetry: tel,
		Feedback:  h.feedback,
		Generator: h.generator,
		Store:     h.store,
		Navigator: h.rec,
		Notifier:  h.rec,
		Observer:  h.obs,
		Logger:    logging.Discard(),
		Picker:    func(int) int { return 0 },
	}, opts)
	h.c.AddListener(h.states)
	h.c.Attach()
	t.Cleanup(h.c.Close)
	return h
}

func takeContext() Context {
	return Context{
		UserName:    "Ana",
		UserID:      "user-1",
		InterviewID: "iv-1",
		Mode:        ModeTake,
		Questions:   []string{"What is a closure?", "Explain REST."},
	}
}

// startActive starts a call and confirms it through the channel.
func (h *harness) startActive() {
	h.t.Helper()
	if err := h.c.StartCall(context.Background()); err != nil {
		h.t.Fatalf("start call: %v", err)
	}
	h.ch.Emit(channelCallStarted)
	if got := h.c.State(); got != StateActive {
		h.t.Fatalf("expected ACTIVE, got %s", got)
	}
}

func (h *harness) say(role, text string) {
	h.ch.Emit(finalMessage(role, text))
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

var errBoom = errors.New("boom")
