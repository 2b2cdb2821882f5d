package telemetry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/logging"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/metrics"
)

type tracker struct {
	srv      *httptest.Server
	received chan string
	conns    chan *websocket.Conn
}

func newTracker(t *testing.T) *tracker {
	t.Helper()
	tr := &tracker{received: make(chan string, 16), conns: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{}
	tr.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		tr.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &msg) == nil {
				tr.received <- msg.Type
				if msg.Type == "ping" {
					_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pong"}`))
				}
			}
		}
	}))
	t.Cleanup(tr.srv.Close)
	return tr
}

func (tr *tracker) url() string { return "ws" + strings.TrimPrefix(tr.srv.URL, "http") }

func (tr *tracker) expect(t *testing.T, typ string) {
	t.Helper()
	select {
	case got := <-tr.received:
		if got != typ {
			t.Fatalf("expected %q, got %q", typ, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("tracker did not receive %q", typ)
	}
}

type fakeCamera struct {
	err     error
	mu      sync.Mutex
	stopped int
}

func (f *fakeCamera) Open(context.Context) (Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f, nil
}

func (f *fakeCamera) Stop() {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
}

func (f *fakeCamera) Stopped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("%s", msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartAndStopLifecycle(t *testing.T) {
	tr := newTracker(t)
	var controlMu sync.Mutex
	var controlPaths []string
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controlMu.Lock()
		controlPaths = append(controlPaths, r.Method+" "+r.URL.Path)
		controlMu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer control.Close()

	cam := &fakeCamera{}
	obs := metrics.NewMemoryObserver()
	c := New(Config{URL: tr.url(), ControlURL: control.URL + "/api", Logger: logging.Discard(), Observer: obs}, cam, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start error: %v", err)
	}
	tr.expect(t, "start_tracking")
	if st := c.Status(); st.State != StateConnected || !st.CameraOn {
		t.Fatalf("unexpected status %+v", st)
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop error: %v", err)
	}
	tr.expect(t, "stop_tracking")
	if cam.Stopped() != 1 {
		t.Fatalf("expected camera released once, got %d", cam.Stopped())
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("second stop should be a no-op, got %v", err)
	}
	if cam.Stopped() != 1 {
		t.Fatalf("expected idempotent stop")
	}
	if st := c.Status(); st.State != StateDisconnected {
		t.Fatalf("expected disconnected, got %s", st.State)
	}

	controlMu.Lock()
	defer controlMu.Unlock()
	if len(controlPaths) != 2 || controlPaths[0] != "POST /api/start-tracking" || controlPaths[1] != "POST /api/stop-tracking" {
		t.Fatalf("unexpected control calls %v", controlPaths)
	}
	if len(obs.Named(metrics.EventTelemetryState)) == 0 {
		t.Fatalf("expected telemetry state events")
	}
}

func TestInboundMessages(t *testing.T) {
	tr := newTracker(t)
	frames := make(chan []byte, 1)
	c := New(Config{URL: tr.url(), AlertTTL: 50 * time.Millisecond, Logger: logging.Discard()}, nil, func(img []byte) {
		frames <- img
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start error: %v", err)
	}
	defer c.Stop(context.Background())
	conn := <-tr.conns
	tr.expect(t, "start_tracking")

	payload := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	msgs := []string{
		`{"type":"video_frame","frame":"` + payload + `"}`,
		`{"type":"eye_data","face_detected":true,"eye_count":2,"looking_away":true}`,
		`{"type":"alert","message":"Please look at the screen","count":3}`,
	}
	for _, m := range msgs {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	select {
	case img := <-frames:
		if string(img) != "jpeg-bytes" {
			t.Fatalf("unexpected frame %q", img)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected frame delivered to sink")
	}
	waitUntil(t, func() bool { return c.Status().Alert != nil }, "expected alert to be shown")
	st := c.Status()
	if st.Alert.Message != "Please look at the screen" || st.Alert.Count != 3 {
		t.Fatalf("unexpected alert %+v", st.Alert)
	}
	if st.Gaze == nil || !st.Gaze.FaceDetected || st.Gaze.EyeCount != 2 || !st.Gaze.LookingAway {
		t.Fatalf("unexpected gaze %+v", st.Gaze)
	}
	if st.Frames != 1 {
		t.Fatalf("expected 1 frame, got %d", st.Frames)
	}
	waitUntil(t, func() bool { return c.Status().Alert == nil }, "expected alert to auto-dismiss")
}

func TestPingPong(t *testing.T) {
	tr := newTracker(t)
	c := New(Config{URL: tr.url(), PingInterval: 20 * time.Millisecond, Logger: logging.Discard()}, nil, nil)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start error: %v", err)
	}
	defer c.Stop(context.Background())
	waitUntil(t, func() bool { return !c.Status().LastPong.IsZero() }, "expected pong to be recorded")
}

func TestConnectFailureSetsErrorState(t *testing.T) {
	c := New(Config{URL: "ws://127.0.0.1:1", HandshakeTimeout: 200 * time.Millisecond, Logger: logging.Discard()}, nil, nil)
	err := c.Start(context.Background())
	if err == nil {
		t.Fatalf("expected connect error")
	}
	if !errorsx.HasReason(err, errorsx.ReasonTelemetryStart) {
		t.Fatalf("expected telemetry_start reason, got %v", err)
	}
	st := c.Status()
	if st.State != StateError || st.Error == "" {
		t.Fatalf("unexpected status %+v", st)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop after failed start: %v", err)
	}
}

func TestCameraFailureDoesNotBlockSocket(t *testing.T) {
	tr := newTracker(t)
	c := New(Config{URL: tr.url(), Logger: logging.Discard()}, &fakeCamera{err: errors.New("permission denied")}, nil)
	err := c.Start(context.Background())
	if !errorsx.HasReason(err, errorsx.ReasonTelemetryCamera) {
		t.Fatalf("expected camera error, got %v", err)
	}
	defer c.Stop(context.Background())
	tr.expect(t, "start_tracking")
	if c.Status().State != StateConnected {
		t.Fatalf("expected socket connected despite camera failure")
	}
}

func TestControlFailureReported(t *testing.T) {
	tr := newTracker(t)
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer control.Close()
	c := New(Config{URL: tr.url(), ControlURL: control.URL, Logger: logging.Discard()}, nil, nil)
	err := c.Start(context.Background())
	if !errorsx.HasReason(err, errorsx.ReasonTelemetryControl) {
		t.Fatalf("expected control error, got %v", err)
	}
	if c.Status().State != StateConnected {
		t.Fatalf("expected socket connected despite control failure")
	}
	_ = c.Stop(context.Background())
}
