// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/pact/lib/config"
	"github.com/bureau-foundation/pact/lib/service"
)

// SocketEnvVar overrides the default service socket path.
const SocketEnvVar = "PACT_SOCKET"

// callTimeout bounds a single CLI request to the service.
const callTimeout = 30 * time.Second

// Connection carries the shared --socket flag for commands that talk
// to the pact service. Embed it in a command's parameter struct and
// call AddFlags during flag registration.
type Connection struct {
	SocketPath string
}

// AddFlags registers the connection flags on the given flag set.
func (c *Connection) AddFlags(flagSet *pflag.FlagSet) {
	defaultSocket := config.DefaultSocketPath
	if env := os.Getenv(SocketEnvVar); env != "" {
		defaultSocket = env
	}
	flagSet.StringVar(&c.SocketPath, "socket", defaultSocket, "pact service socket path")
}

// Connect returns a client for the configured service socket.
func (c *Connection) Connect() *service.Client {
	return service.NewClient(c.SocketPath)
}

// CallContext returns the bounded context used for a single service
// request.
func CallContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), callTimeout)
}
