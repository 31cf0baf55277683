// Package tools implements the built-in tool handlers. Every file-touching
// tool resolves its paths through the workspace jail before any I/O.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/lbaylis/hearth/internal/registry"
)

// Validator is implemented by request types that check their own fields.
type Validator interface {
	Validate() error
}

// Executor is the typed handler behind an Adapter.
type Executor[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Adapter bridges a typed handler to the registry's map-based Tool
// interface. It centralizes argument decoding, request validation, and
// response marshaling so individual tools stay small.
type Adapter[Req, Resp any] struct {
	name        string
	description string
	params      *registry.Schema
	executor    Executor[Req, Resp]
}

// NewAdapter wraps a typed executor as a registry.Tool.
func NewAdapter[Req, Resp any](name, description string, params *registry.Schema, executor Executor[Req, Resp]) *Adapter[Req, Resp] {
	return &Adapter[Req, Resp]{
		name:        name,
		description: description,
		params:      params,
		executor:    executor,
	}
}

func (a *Adapter[Req, Resp]) Name() string        { return a.name }
func (a *Adapter[Req, Resp]) Description() string { return a.description }

func (a *Adapter[Req, Resp]) Definition() registry.Definition {
	return registry.Definition{
		Name:        a.name,
		Description: a.description,
		Parameters:  a.params,
	}
}

// Execute decodes args into the request type, validates it when supported,
// runs the executor, and renders the response. String responses pass through
// unmarshaled; everything else is rendered as JSON.
func (a *Adapter[Req, Resp]) Execute(ctx context.Context, args map[string]any) (string, error) {
	var req Req
	if err := mapstructure.Decode(args, &req); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if v, ok := any(req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return "", fmt.Errorf("%s: %w", a.name, err)
		}
	}

	resp, err := a.executor(ctx, req)
	if err != nil {
		return "", err
	}
	if s, ok := any(resp).(string); ok {
		return s, nil
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("marshal %s response: %w", a.name, err)
	}
	return string(b), nil
}
