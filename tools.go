//go:build tools
// +build tools

// Package tools pins the code generators run through `go generate`
// (mockgen for the mocks package) as module dependencies.
package agora

import (
	_ "go.uber.org/mock/mockgen"
)
