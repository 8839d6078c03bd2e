// Package provider defines the contract with the external generative model.
// The provider is a black box: it accepts a framed request and either returns
// text or fails.
package provider

import (
	"context"
	"errors"
)

// Request is one model invocation: a system (persona) frame, a user (content)
// frame, a token ceiling, and a sampling temperature.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Client is implemented by concrete model providers.
type Client interface {
	// Complete returns the model's raw text output for the request. Any
	// error it returns is treated as a transport failure by callers.
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrMissingCredential indicates the provider was constructed without an API
// credential. This is a configuration error and is never retried.
var ErrMissingCredential = errors.New("model provider credential is not configured")
