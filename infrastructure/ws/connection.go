package ws

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrBufferFull       = fmt.Errorf("connection buffer exceeded")
)

type Options struct {
	BufferSize    int
	PingPeriod    time.Duration
	PongTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxFrameBytes int64
}

func DefaultOptions() Options {
	return Options{
		BufferSize:    128,
		PingPeriod:    30 * time.Second,
		PongTimeout:   60 * time.Second,
		WriteTimeout:  10 * time.Second,
		MaxFrameBytes: 64 << 10,
	}
}

// Connection is the websocket Transport. Outbound frames go through a buffered
// queue drained by a single writer, so Send never blocks the router.
type Connection struct {
	id       string
	identity string
	log      *slog.Logger
	ws       *websocket.Conn
	options  Options
	send     chan []byte
	once     sync.Once
	done     chan struct{}
}

func NewConnection(log *slog.Logger, identity string, conn *websocket.Conn, options Options) *Connection {
	return &Connection{
		id:       uuid.NewString(),
		identity: identity,
		log:      log,
		ws:       conn,
		options:  options,
		send:     make(chan []byte, options.BufferSize),
		done:     make(chan struct{}),
	}
}

func (c *Connection) ID() string       { return c.id }
func (c *Connection) Identity() string { return c.identity }

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Start launches the write loop. It must be called exactly once.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Send enqueues frame. A client too slow to keep its buffer drained is disconnected.
func (c *Connection) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		c.log.Warn("Slow consumer disconnected", "user_id", c.identity, "transport", c.id)
		c.Close("send buffer full")
		return ErrBufferFull
	}
}

// Close sends a close frame with reason and releases the socket. Later calls do nothing.
func (c *Connection) Close(reason string) {
	c.closeWith(websocket.CloseGoingAway, reason)
}

func (c *Connection) closeWith(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		deadline := time.Now().Add(c.options.WriteTimeout)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

// prepareRead applies the frame size cap and the pong driven read deadline.
func (c *Connection) prepareRead() {
	c.ws.SetReadLimit(c.options.MaxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.options.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.options.PongTimeout))
	})
}

func (c *Connection) read() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(c.options.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.log.Debug("Write failed", "transport", c.id, "error", err)
				c.Close("write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close("ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
