//go:build tools
// +build tools

// Package tools tracks tool dependencies (mockgen) in go.mod so that
// `go generate ./...` works on a fresh checkout.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
