// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package websocket

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/presence-relay/internal/config"
	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/metrics"
	"github.com/tomtom215/presence-relay/internal/presence"
	"github.com/tomtom215/presence-relay/internal/protocol"
)

// Options holds the per-connection timing and sizing settings.
type Options struct {
	PingInterval   time.Duration
	PingTimeout    time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SendBuffer     int
	UpdateRate     float64
	UpdateBurst    int
}

// OptionsFromConfig maps the relay configuration section to client options.
func OptionsFromConfig(cfg config.RelayConfig) Options {
	return Options{
		PingInterval:   cfg.PingInterval,
		PingTimeout:    cfg.PingTimeout,
		WriteWait:      cfg.WriteWait,
		MaxMessageSize: cfg.MaxMessageSize,
		SendBuffer:     cfg.SendBuffer,
		UpdateRate:     cfg.UpdateRate,
		UpdateBurst:    cfg.UpdateBurst,
	}
}

// idleTimeout is how long the read side waits for any frame or pong.
func (o Options) idleTimeout() time.Duration {
	return o.PingInterval + o.PingTimeout
}

// Client is a middleman between the websocket connection and the relay.
// It implements presence.Subscriber.
type Client struct {
	id      string
	relay   *presence.Relay
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	opts    Options
	limiter *rate.Limiter
	state   atomic.Int32
	once    sync.Once
	logger  zerolog.Logger

	// Close frame sent by the write pump; set once before done is closed.
	closeCode int
	closeText string
}

// NewClient creates a Client with a fresh UUID in the CONNECTING state.
func NewClient(relay *presence.Relay, conn *websocket.Conn, opts Options) *Client {
	id := uuid.NewString()
	c := &Client{
		id:      id,
		relay:   relay,
		conn:    conn,
		send:    make(chan []byte, opts.SendBuffer),
		done:    make(chan struct{}),
		opts:    opts,
		limiter: presence.NewUpdateLimiter(opts.UpdateRate, opts.UpdateBurst),
		logger:  logging.WithComponent("websocket").With().Str("conn_id", id).Logger(),
	}
	c.state.Store(int32(presence.StateConnecting))
	return c
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// State returns the connection lifecycle state.
func (c *Client) State() presence.ConnState {
	return presence.ConnState(c.state.Load())
}

// Deliver encodes ev and queues it for the write pump without blocking.
func (c *Client) Deliver(ev presence.Event) error {
	frame, err := protocol.EncodeEvent(ev)
	if err != nil {
		return err
	}
	return c.enqueue(frame)
}

func (c *Client) enqueue(frame []byte) error {
	select {
	case <-c.done:
		return presence.ErrSubscriberClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return presence.ErrBufferFull
	}
}

// Close is called by the relay when it shuts down or when a duplicate join
// replaces this connection. The peer gets a going-away close frame.
func (c *Client) Close() {
	c.closeWith(websocket.CloseGoingAway, "server shutting down")
}

// closeWith stops the write pump, which sends a close frame with code and
// drops the connection. The read pump then observes the error and leaves the
// relay. Only the first call decides the close frame.
func (c *Client) closeWith(code int, text string) {
	c.once.Do(func() {
		c.closeCode = code
		c.closeText = text
		c.state.Store(int32(presence.StateClosed))
		close(c.done)
	})
}

// readPump pumps frames from the websocket connection to the relay.
func (c *Client) readPump() {
	defer func() {
		c.relay.Detach(c)
		c.closeWith(websocket.CloseNormalClosure, "")
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
		metrics.TrackTransportConnection(metrics.TransportWebSocket, false)
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.idleTimeout())); err != nil {
		c.logger.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.idleTimeout()))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		metrics.TransportMessagesReceived.WithLabelValues(metrics.TransportWebSocket).Inc()

		if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.idleTimeout())); err != nil {
			c.logger.Error().Err(err).Msg("failed to extend read deadline")
			return
		}

		if msgType != websocket.TextMessage {
			c.reject(&protocol.DecodeError{Reason: metrics.ReasonMalformed, Err: errors.New("binary frames are not supported")})
			continue
		}
		c.handle(data)
	}
}

// handle applies one client frame. Bad frames are answered with an error
// frame and never close the connection.
func (c *Client) handle(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		c.reject(err)
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		_ = c.enqueue(protocol.EncodePong())

	case protocol.TypeSendLocation:
		if !c.limiter.Allow() {
			metrics.RecordLocationUpdate(metrics.ReasonRateLimited)
			c.logger.Debug().Msg("location update rate limited")
			_ = c.enqueue(protocol.EncodeError(protocol.CodeRateLimited, "location updates are arriving too fast"))
			return
		}
		if err := c.relay.UpdateLocation(c.id, msg.Location); err != nil {
			if errors.Is(err, presence.ErrUnknownConnection) {
				return
			}
			_ = c.enqueue(protocol.ErrorFrame(err))
		}
	}
}

func (c *Client) reject(err error) {
	var derr *protocol.DecodeError
	reason := metrics.ReasonValidation
	if errors.As(err, &derr) {
		reason = derr.Reason
	}
	metrics.RecordLocationUpdate(reason)
	c.logger.Warn().Err(err).Str("reason", reason).Msg("invalid client message rejected")
	_ = c.enqueue(protocol.ErrorFrame(err))
}

func (c *Client) logReadError(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
		metrics.RecordTransportError(metrics.TransportWebSocket, "read")
		c.logger.Warn().Err(err).Msg("unexpected websocket close error")
		return
	}
	c.logger.Debug().Err(err).Msg("websocket read ended")
}

// writePump pumps queued frames to the websocket connection and keeps the
// peer alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				c.logger.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				metrics.RecordTransportError(metrics.TransportWebSocket, "write")
				c.logger.Debug().Err(err).Msg("failed to write message")
				return
			}
			metrics.TransportMessagesSent.WithLabelValues(metrics.TransportWebSocket).Inc()

		case <-c.done:
			c.flush()
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(c.closeCode, c.closeText),
				time.Now().Add(c.opts.WriteWait),
			)
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				c.logger.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is still queued without waiting for more.
func (c *Client) flush() {
	for {
		select {
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Start joins the relay and begins reading and writing for the client.
// The write pump starts first so join-time events (backfill, total-users)
// are flushed as soon as they are queued.
func (c *Client) Start() error {
	metrics.TrackTransportConnection(metrics.TransportWebSocket, true)
	go c.writePump()

	if err := c.relay.Join(c); err != nil && !errors.Is(err, presence.ErrDuplicateConnection) {
		if errors.Is(err, presence.ErrRelayClosed) {
			c.Close()
		} else {
			c.closeWith(websocket.CloseInternalServerErr, "join failed")
		}
		metrics.TrackTransportConnection(metrics.TransportWebSocket, false)
		return err
	}
	c.state.CompareAndSwap(int32(presence.StateConnecting), int32(presence.StateActive))

	go c.readPump()
	return nil
}
