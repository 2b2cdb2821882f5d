// Package ws implements the voice channel over a JSON websocket gateway.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/channel"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/logging"
)

var ErrAlreadyStarted = errors.New("voice channel already started")

// Config configures the websocket voice channel.
type Config struct {
	URL              string
	Token            string
	HandshakeTimeout time.Duration
	CloseTimeout     time.Duration
	SendBuffer       int
	Logger           *slog.Logger
}

// Channel is a websocket-backed channel.Channel. A Channel may be started
// again after Stop.
type Channel struct {
	cfg  Config
	log  *slog.Logger
	subs channel.Subscribers

	mu   sync.Mutex
	sess *session
}

func New(cfg Config) *Channel {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 2 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	return &Channel{
		cfg: cfg,
		log: logging.NewComponentLogger(cfg.Logger, "channel_ws"),
	}
}

func (c *Channel) Name() string { return "ws" }

func (c *Channel) Subscribe(fn func(channel.Event)) func() {
	return c.subs.Add(fn)
}

// Start dials the gateway and requests a call for target. ctx bounds the
// dial and handshake only; the call runs until Stop or the remote side ends it.
func (c *Channel) Start(ctx context.Context, target channel.Target, vars map[string]any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.mu.Unlock()

	header := http.Header{}
	if strings.TrimSpace(c.cfg.Token) != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			err = fmt.Errorf("auth rejected by voice gateway (status %d): %w", resp.StatusCode, err)
		}
		return errorsx.Wrap(err, errorsx.ReasonChannelOpen)
	}

	start, err := json.Marshal(outbound{Type: "start", Target: &target, VariableValues: vars})
	if err != nil {
		_ = conn.Close()
		return errorsx.Wrap(err, errorsx.ReasonChannelOpen)
	}
	if err := conn.WriteMessage(websocket.TextMessage, start); err != nil {
		_ = conn.Close()
		return errorsx.Wrap(err, errorsx.ReasonChannelOpen)
	}

	sess := &session{
		conn:       conn,
		sendCh:     make(chan []byte, c.cfg.SendBuffer),
		writerDone: make(chan struct{}),
	}
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrAlreadyStarted
	}
	c.sess = sess
	c.mu.Unlock()

	go c.writeLoop(sess)
	go c.readLoop(sess)

	c.log.Info("voice_channel_started",
		slog.String("target_kind", string(target.Kind)),
		slog.String("target_id", target.ID),
	)
	return nil
}

// Stop asks the gateway to end the call and closes the socket. Stop on a
// channel that is not started is a no-op.
func (c *Channel) Stop() error {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()
	if sess == nil {
		return nil
	}
	if !sess.closing.CompareAndSwap(false, true) {
		return nil
	}

	stop, _ := json.Marshal(outbound{Type: "stop"})
	sess.enqueue(stop)
	sess.closeSend()

	var err error
	select {
	case <-sess.writerDone:
	case <-time.After(c.cfg.CloseTimeout):
		err = errorsx.Errorf(errorsx.ReasonChannelStop, "voice channel close timed out after %s", c.cfg.CloseTimeout)
	}
	if cerr := sess.conn.Close(); cerr != nil && err == nil && !errors.Is(cerr, websocket.ErrCloseSent) {
		err = errorsx.Wrap(cerr, errorsx.ReasonChannelStop)
	}
	c.log.Info("voice_channel_stopped")
	return err
}

func (c *Channel) writeLoop(sess *session) {
	defer close(sess.writerDone)
	for msg := range sess.sendCh {
		if err := sess.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			err = errorsx.Wrap(err, errorsx.ReasonChannelSend)
			c.log.Warn("voice_channel_write_failed",
				errorsx.Attr(err), slog.String("error", err.Error()))
			return
		}
	}
	_ = sess.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Channel) readLoop(sess *session) {
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if sess.closing.Load() {
				return
			}
			c.detach(sess)
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.subs.Dispatch(channel.CallEnded{Reason: "closed"})
				return
			}
			c.log.Warn("voice_channel_read_failed", slog.String("error", err.Error()))
			c.subs.Dispatch(channel.NewError(fmt.Errorf("network error: %w", err)))
			return
		}
		ev, ok, err := decode(data)
		if err != nil {
			c.log.Debug("voice_channel_decode_failed", slog.String("error", err.Error()))
			continue
		}
		if !ok {
			continue
		}
		c.subs.Dispatch(ev)
		if _, ended := ev.(channel.CallEnded); ended {
			c.finish(sess)
			return
		}
	}
}

// detach forgets sess if it is still current so a later Start can proceed.
func (c *Channel) detach(sess *session) {
	c.mu.Lock()
	if c.sess == sess {
		c.sess = nil
	}
	c.mu.Unlock()
	if sess.closing.CompareAndSwap(false, true) {
		sess.closeSend()
	}
}

// finish tears down a session the gateway ended.
func (c *Channel) finish(sess *session) {
	c.detach(sess)
	select {
	case <-sess.writerDone:
	case <-time.After(c.cfg.CloseTimeout):
	}
	_ = sess.conn.Close()
}

type session struct {
	conn       *websocket.Conn
	sendCh     chan []byte
	sendMu     sync.Mutex
	sendClosed bool
	closing    atomic.Bool
	writerDone chan struct{}
}

func (s *session) enqueue(msg []byte) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.sendClosed {
		return
	}
	select {
	case s.sendCh <- msg:
	default:
	}
}

func (s *session) closeSend() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if !s.sendClosed {
		s.sendClosed = true
		close(s.sendCh)
	}
}
