//go:build tools
// +build tools

// Package tools pins the tools invoked by go generate (mockgen) as module
// dependencies so go.mod and go.sum stay in sync on a fresh checkout.
package qleon

import (
	_ "go.uber.org/mock/mockgen"
)
