// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/pact/lib/codec"
	"github.com/bureau-foundation/pact/lib/escrow"
)

// ActionFunc processes a socket request for a specific action. The
// raw parameter is the full CBOR request (including the "action"
// field); the handler decodes action-specific fields from it.
//
// Return a value to include in the success response, or an error for
// a failure response. A nil value produces a bare {ok: true}; a
// non-nil value is marshaled as CBOR into the response's "data"
// field. Errors of type *escrow.Error additionally carry their code
// in the response's "code" field.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the wire-format envelope for all socket protocol
// responses. Handlers return a result value (or nil) and an error;
// the server wraps these into a Response before encoding.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Code  string           `cbor:"code,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// readTimeout is how long the server waits for the client to send its
// request. A well-behaved client sends immediately after connecting.
const readTimeout = 30 * time.Second

// writeTimeout is how long the server waits for the response write.
const writeTimeout = 10 * time.Second

// maxRequestSize bounds a single CBOR request. Every escrow operation
// fits in a fraction of this; the bound exists so a broken client
// cannot balloon server memory.
const maxRequestSize = 1024 * 1024

// SocketServer serves the pact socket protocol on a Unix socket.
// Each connection handles exactly one request-response cycle.
//
// Actions are registered with Handle before calling Serve. Unknown
// actions receive an error response.
type SocketServer struct {
	socketPath string
	handlers   map[string]ActionFunc
	logger     *slog.Logger

	// activeConnections tracks in-flight request handlers for
	// graceful shutdown. Serve waits for all active connections to
	// complete before returning.
	activeConnections sync.WaitGroup
}

// NewSocketServer creates a server that will listen on socketPath.
// Register actions with Handle before calling Serve.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		logger:     logger,
	}
}

// Handle registers a handler for the given action name. Panics if the
// action is already registered.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve starts accepting connections on the Unix socket and
// dispatches requests to registered action handlers. Blocks until ctx
// is cancelled, then stops accepting new connections and waits for
// active handlers to complete.
//
// Any existing socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// handleConnection reads one CBOR request, dispatches it, and writes
// one CBOR response. Protocol errors (unreadable request, unknown
// action) produce failure responses where possible; encoding failures
// on the way out are logged and the connection dropped.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var raw codec.RawMessage
	decoder := codec.NewDecoder(io.LimitReader(conn, maxRequestSize))
	if err := decoder.Decode(&raw); err != nil {
		s.logger.Warn("unreadable request", "error", err)
		s.writeResponse(conn, Response{OK: false, Error: "unreadable CBOR request"})
		return
	}

	var envelope struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &envelope); err != nil || envelope.Action == "" {
		s.writeResponse(conn, Response{OK: false, Error: "request has no action field"})
		return
	}

	handler, known := s.handlers[envelope.Action]
	if !known {
		s.writeResponse(conn, Response{
			OK:    false,
			Error: fmt.Sprintf("unknown action %q", envelope.Action),
		})
		return
	}

	result, err := handler(ctx, raw)
	if err != nil {
		s.writeResponse(conn, Response{
			OK:    false,
			Error: err.Error(),
			Code:  string(escrow.CodeOf(err)),
		})
		return
	}

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.logger.Error("encoding response data", "action", envelope.Action, "error", err)
			s.writeResponse(conn, Response{OK: false, Error: "internal encoding error"})
			return
		}
		response.Data = data
	}
	s.writeResponse(conn, response)
}

// writeResponse encodes one response envelope onto the connection.
func (s *SocketServer) writeResponse(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Warn("writing response", "error", err)
	}
}
