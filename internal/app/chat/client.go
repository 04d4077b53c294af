package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"socialchat/internal/pkg/logx"
)

const (
	// timeout for a single write to the socket.
	writeWait = 10 * time.Second

	// how long the server waits for a Pong before treating the peer as gone.
	pongWait = 60 * time.Second

	// ping cadence, must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// largest inbound frame accepted.
	maxFrameSize = 16 * 1024

	// outbound frames buffered per connection before deliveries are dropped.
	sendBufferSize = 256
)

var (
	ErrConnClosed    = errors.New("connection closed")
	ErrSendQueueFull = errors.New("send queue full")
)

// Client is one WebSocket connection. Inbound frames are read and handled
// sequentially on the ReadPump goroutine; outbound frames are queued on send
// and written by WritePump.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	send chan []byte
	done chan struct{}

	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	id := uuid.NewString()

	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logx.Logger().With().Str("conn_id", id).Logger(),
	}
}

// ID implements Conn.
func (c *Client) ID() string { return c.id }

// Serve attaches the client to the hub and runs both pumps. It blocks until the
// connection is gone and the client has been detached.
func (c *Client) Serve() {
	go c.WritePump()

	c.hub.Attach(c)
	c.ReadPump()
}

// Deliver implements Conn. It never blocks: a full queue drops the frame.
func (c *Client) Deliver(evt Outbound) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	frame, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", evt.Type, err)
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Str("type", string(evt.Type)).Msg("Client send queue full, dropping frame")
		return ErrSendQueueFull
	}
}

// Close implements Conn. It sends a close frame with code and reason and stops
// the write loop; the read loop then fails and detaches the client.
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.logger.Info().Int("close_code", code).Str("reason", reason).Msg("Closing connection.")

		msg := websocket.FormatCloseMessage(code, reason)
		if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to send close frame")
		}

		close(c.done)
	})
}

// ReadPump reads frames until the connection fails, then detaches the client.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		c.processInbound(frame)
	}
}

// cleanupOnDisconnect runs when ReadPump exits, however it exits.
func (c *Client) cleanupOnDisconnect() {
	c.hub.Detach(c)

	c.closeOnce.Do(func() { close(c.done) })

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}

	c.logger.Info().Msg("Client disconnected.")
}

// processInbound validates a raw frame at the boundary and hands the typed
// event to the hub. Bad frames are answered with an error frame; the
// connection stays open.
func (c *Client) processInbound(frame []byte) {
	env, err := ParseEnvelope(frame)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid frame")
		c.hub.Reject(c, err, "")
		return
	}

	evt, err := env.Decode()
	if err != nil {
		c.logger.Warn().Err(err).Str("type", string(env.Type)).Msg("Client sent invalid event")
		c.hub.Reject(c, err, env.TempID)
		return
	}

	if err := c.hub.Handle(c, evt); err != nil {
		c.logger.Warn().Err(err).Str("type", string(env.Type)).Msg("Event handling failed")
	}
}

// WritePump drains the send queue to the socket and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}
