// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the small command-tree framework the pact CLI
// is built from: a Command type with pflag flag sets, nested
// subcommand dispatch with typo suggestions, structured help output,
// and the shared service-socket connection flags.
package cli
