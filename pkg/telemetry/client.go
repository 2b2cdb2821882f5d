// Package telemetry is the webcam and eye-tracking side channel that runs
// next to a voice call. Its failures are reported to the caller but never
// affect the call itself.
package telemetry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/logging"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/metrics"
)

// Config configures the telemetry client.
type Config struct {
	// URL is the tracker websocket endpoint.
	URL string
	// ControlURL is the base URL of the tracker supervisor exposing
	// /start-tracking and /stop-tracking. Empty disables control calls.
	ControlURL       string
	ControlTimeout   time.Duration
	AlertTTL         time.Duration
	PingInterval     time.Duration
	HandshakeTimeout time.Duration
	HTTPClient       *http.Client
	Logger           *slog.Logger
	Observer         metrics.Observer
}

const DefaultURL = "ws://localhost:5000"

// Client connects to the eye-tracking backend for the duration of a call.
type Client struct {
	cfg     Config
	log     *slog.Logger
	obs     metrics.Observer
	camera  Camera
	sink    FrameSink
	control *controlClient

	mu       sync.Mutex
	conn     *websocket.Conn
	stream   Stream
	started  bool
	closing  bool
	state    ConnectionState
	lastErr  string
	alert    *Alert
	alertSeq uint64
	gaze     *Gaze
	frames   int
	lastPong time.Time
	stopPing chan struct{}
	readDone chan struct{}

	writeMu sync.Mutex
}

// New builds a client. camera and sink may be nil.
func New(cfg Config, camera Camera, sink FrameSink) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.AlertTTL <= 0 {
		cfg.AlertTTL = 5 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
	return &Client{
		cfg:     cfg,
		log:     logging.NewComponentLogger(cfg.Logger, "telemetry"),
		obs:     metrics.OrNoop(cfg.Observer),
		camera:  camera,
		sink:    sink,
		control: newControlClient(cfg.ControlURL, cfg.ControlTimeout, cfg.HTTPClient),
		state:   StateDisconnected,
	}
}

// Start asks the supervisor to launch tracking, opens the camera and
// connects the tracker socket. The returned error describes the first
// failure; partial success is kept (a failed camera does not prevent the
// socket from connecting).
func (c *Client) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.closing = false
	c.lastErr = ""
	c.mu.Unlock()
	c.setState(StateConnecting, "")

	var errs []error
	if err := c.control.post(ctx, "/start-tracking"); err != nil {
		c.log.Warn("telemetry_control_failed", slog.String("op", "start-tracking"), slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if c.camera != nil {
		stream, err := c.camera.Open(ctx)
		if err != nil {
			err = errorsx.Wrap(err, errorsx.ReasonTelemetryCamera)
			c.log.Warn("telemetry_camera_failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		} else {
			c.mu.Lock()
			closing := c.closing
			if !closing {
				c.stream = stream
			}
			c.mu.Unlock()
			if closing {
				stream.Stop()
			}
		}
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonTelemetryStart)
		c.setState(StateError, "Failed to connect to eye tracking service")
		c.log.Warn("telemetry_connect_failed", slog.String("url", c.cfg.URL), slog.String("error", err.Error()))
		return errors.Join(append(errs, err)...)
	}

	readDone := make(chan struct{})
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		_ = conn.Close()
		return errors.Join(append(errs, errorsx.Errorf(errorsx.ReasonTelemetryStart, "telemetry stopped while connecting"))...)
	}
	c.conn = conn
	c.readDone = readDone
	c.mu.Unlock()

	if err := c.write(conn, outbound{Type: "start_tracking"}); err != nil {
		errs = append(errs, errorsx.Wrap(err, errorsx.ReasonTelemetryStart))
	}
	c.setState(StateConnected, "")
	c.log.Info("telemetry_connected", slog.String("url", c.cfg.URL), slog.String("control", c.control.String()))

	go c.readLoop(conn, readDone)
	if c.cfg.PingInterval > 0 {
		stop := make(chan struct{})
		c.mu.Lock()
		c.stopPing = stop
		c.mu.Unlock()
		go c.pingLoop(conn, stop)
	}
	return errors.Join(errs...)
}

// Stop sends stop_tracking, closes the socket, releases the camera and asks
// the supervisor to stop tracking. Stop is idempotent and honours ctx for the
// parts that can block.
func (c *Client) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	c.closing = true
	conn := c.conn
	stream := c.stream
	stopPing := c.stopPing
	readDone := c.readDone
	c.conn = nil
	c.stream = nil
	c.stopPing = nil
	c.readDone = nil
	c.mu.Unlock()

	var errs []error
	if stopPing != nil {
		close(stopPing)
	}
	if conn != nil {
		if err := c.write(conn, outbound{Type: "stop_tracking"}); err != nil {
			errs = append(errs, errorsx.Wrap(err, errorsx.ReasonTelemetryStop))
		}
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = conn.Close()
		if readDone != nil {
			select {
			case <-readDone:
			case <-ctx.Done():
				errs = append(errs, errorsx.Wrap(ctx.Err(), errorsx.ReasonTelemetryStop))
			}
		}
	}
	if stream != nil {
		stream.Stop()
	}
	if err := c.control.post(ctx, "/stop-tracking"); err != nil {
		c.log.Warn("telemetry_control_failed", slog.String("op", "stop-tracking"), slog.String("error", err.Error()))
		errs = append(errs, errorsx.Wrap(err, errorsx.ReasonTelemetryStop))
	}

	c.mu.Lock()
	c.alert = nil
	c.alertSeq++
	c.mu.Unlock()
	c.setState(StateDisconnected, "")
	c.log.Info("telemetry_stopped")
	return errors.Join(errs...)
}

// Status returns a snapshot for display.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		State:    c.state,
		Error:    c.lastErr,
		Frames:   c.frames,
		CameraOn: c.stream != nil,
		LastPong: c.lastPong,
	}
	if c.alert != nil {
		a := *c.alert
		st.Alert = &a
	}
	if c.gaze != nil {
		g := *c.gaze
		st.Gaze = &g
	}
	return st
}

func (c *Client) setState(state ConnectionState, errText string) {
	c.mu.Lock()
	prev := c.state
	c.state = state
	if errText != "" {
		c.lastErr = errText
	}
	c.mu.Unlock()
	if prev == state {
		return
	}
	c.obs.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventTelemetryState,
		Time: time.Now(),
		Tags: map[string]string{"from": string(prev), "to": string(state)},
	})
}

func (c *Client) write(conn *websocket.Conn, msg outbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.write(conn, outbound{Type: "ping"}); err != nil {
				return
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closing := c.closing
			c.mu.Unlock()
			if closing {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setState(StateDisconnected, "")
			} else {
				c.setState(StateError, "Eye tracking connection lost")
			}
			c.log.Warn("telemetry_disconnected", slog.String("error", err.Error()))
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Debug("telemetry_decode_failed", slog.String("error", err.Error()))
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg inbound) {
	now := time.Now()
	switch msg.Type {
	case "video_frame":
		img, err := base64.StdEncoding.DecodeString(msg.Frame)
		if err != nil {
			c.log.Debug("telemetry_frame_invalid", slog.String("error", err.Error()))
			return
		}
		c.mu.Lock()
		c.frames++
		c.mu.Unlock()
		if c.sink != nil {
			c.sink(img)
		}
	case "alert":
		c.raiseAlert(Alert{Message: msg.Message, Count: msg.Count, At: now})
	case "eye_data":
		c.mu.Lock()
		c.gaze = &Gaze{
			FaceDetected: msg.FaceDetected,
			EyeCount:     msg.EyeCount,
			LookingAway:  msg.LookingAway,
			At:           now,
		}
		c.mu.Unlock()
	case "connection":
		c.log.Info("telemetry_backend_status", slog.String("status", msg.Status), slog.String("message", msg.Message))
	case "error":
		c.mu.Lock()
		c.lastErr = msg.Message
		c.mu.Unlock()
		c.log.Warn("telemetry_backend_error", slog.String("message", msg.Message))
	case "pong":
		c.mu.Lock()
		c.lastPong = now
		c.mu.Unlock()
	}
}

// raiseAlert shows a and clears it after AlertTTL unless a newer alert
// replaced it in the meantime.
func (c *Client) raiseAlert(a Alert) {
	c.mu.Lock()
	c.alertSeq++
	seq := c.alertSeq
	c.alert = &a
	c.mu.Unlock()

	c.obs.RecordEvent(metrics.MetricsEvent{
		Name:   metrics.EventTelemetryAlert,
		Time:   a.At,
		Value:  float64(a.Count),
		Fields: map[string]any{"message": a.Message},
	})
	time.AfterFunc(c.cfg.AlertTTL, func() {
		c.mu.Lock()
		if c.alertSeq == seq {
			c.alert = nil
		}
		c.mu.Unlock()
	})
}
