// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/pact/lib/codec"
	"github.com/bureau-foundation/pact/lib/escrow"
)

// dialTimeout is the maximum time to wait for a connection to the
// service socket. Separate from the server's read/write timeouts - it
// covers only the connect phase.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long the client waits for the server to
// send a response after writing the request. Matched to the server's
// readTimeout + writeTimeout to account for handler execution time.
const responseReadTimeout = 45 * time.Second

// maxResponseSize is the maximum size of a single CBOR response.
// Matches the server's maxRequestSize for symmetry.
const maxResponseSize = 1024 * 1024

// ServiceError is returned by Call when the server responds with
// ok=false. It carries the escrow error code when the failure came
// from a lifecycle precondition, so remote callers can branch with
// [escrow.IsCode] exactly like in-process callers:
//
//	err := client.Call(ctx, "task.join", fields, &result)
//	if escrow.IsCode(err, escrow.CodeTaskFull) { ... }
type ServiceError struct {
	Action  string
	Code    escrow.Code
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error on %q: %s", e.Action, e.Message)
}

// As supports errors.As conversion to *escrow.Error so that IsCode
// works across the wire.
func (e *ServiceError) As(target any) bool {
	escrowErr, ok := target.(**escrow.Error)
	if !ok || e.Code == "" {
		return false
	}
	*escrowErr = &escrow.Error{
		Code:    e.Code,
		Op:      e.Action,
		Message: e.Message,
	}
	return true
}

// Client sends CBOR requests to a pact service socket. Each Call
// opens a new connection (matching the server's one-request-per-
// connection model), sends the request, reads the response, and
// closes the connection.
type Client struct {
	socketPath string
}

// NewClient creates a client for the service socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Call sends a CBOR request to the service and decodes the response.
//
// The fields parameter carries handler-specific request fields; the
// client adds "action" automatically. Pass nil for actions with no
// parameters. The caller must not include an "action" key in fields.
//
// On success (ok=true), if result is non-nil and the response
// contains data, the data is CBOR-decoded into result. On failure
// (ok=false), returns a *ServiceError. Connection and encoding errors
// are returned as plain errors.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}

	if !response.OK {
		return &ServiceError{
			Action:  action,
			Code:    escrow.Code(response.Code),
			Message: response.Error,
		}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// send performs one connect-write-read cycle.
func (c *Client) send(ctx context.Context, request map[string]any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// Propagate context cancellation by closing the connection,
	// which unblocks any pending read or write.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	decoder := codec.NewDecoder(io.LimitReader(conn, maxResponseSize))
	if err := decoder.Decode(&response); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("server closed connection without responding")
		}
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
