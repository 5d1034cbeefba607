package ipc

import (
	"log/slog"
	"net"
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection is one game host session talking to the engine.
// Each player gets its own connection, identified after the hello handshake.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler
	logger   *slog.Logger
}

func NewConnection(conn net.Conn, handlers map[string]Handler, logger *slog.Logger) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Connection{
		conn:     conn,
		handlers: handlers,
		logger:   logger,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// SetLogger replaces the connection logger, typically once the session is identified.
func (c *Connection) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return WriteEnvelope(c.conn, env)
}

// Close unblocks a pending ReadLoop.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// ReadLoop blocks until the connection closes or errors. It owns the conn lifetime
// so callers don't need to track cleanup. A handler error is reported to the
// host as an error envelope and the loop keeps going.
func (c *Connection) ReadLoop() {
	defer c.conn.Close()

	for {
		env, err := ReadEnvelope(c.conn)
		if err != nil {
			c.logger.Info("connection read ended", "error", err)
			return
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			c.logger.Warn("no handler for message type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if err != nil {
			c.logger.Error("handler error", "type", env.Type, "error", err)
			if err := c.Send(TypeError, ErrorMessage{Type: env.Type, Error: err.Error()}); err != nil {
				c.logger.Error("failed to send error", "error", err)
				return
			}
			continue
		}

		if resp != nil {
			if err := WriteEnvelope(c.conn, *resp); err != nil {
				c.logger.Error("failed to send response", "type", resp.Type, "error", err)
				return
			}
			c.logger.Debug("sent response", "type", resp.Type)
		}
	}
}
