// Package tools is the registry of callable tools the orchestrator exposes
// to the model. Every tool declares a strict JSON schema for its arguments;
// schemas are compiled once at startup and arguments are validated before a
// handler ever runs. For identity-bound tools the verified caller identity
// is overlaid after parsing, so a model-supplied user_id can never win.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/beq-project/beq/pkg/llm"
)

// Args are the parsed, validated tool arguments.
type Args map[string]any

// Invocation is one validated tool call handed to a handler.
type Invocation struct {
	// UserID is the verified caller identity, never model-supplied.
	UserID string
	Args   Args
}

// Result is a successful tool outcome. Content is what the model sees;
// EntityID carries the id of a created or updated entity for causal
// metadata.
type Result struct {
	Content  string `json:"content"`
	EntityID string `json:"entity_id,omitempty"`
}

// Handler executes one tool call.
type Handler func(ctx context.Context, inv Invocation) (*Result, error)

// Tool is one registered tool.
type Tool struct {
	Name        string
	Description string
	// IdentityBound tools refuse to run without a verified caller and have
	// user_id overlaid by the registry.
	IdentityBound bool
	// Mutating marks tools that change stored or external state.
	Mutating bool

	schema  *jsonschema.Schema
	handler Handler
}

// Registry holds the tool set and dispatches calls.
type Registry struct {
	tools  map[string]*Tool
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger.With("component", "tools"),
	}
}

// Register adds a tool, compiling its argument schema. Schema errors are
// programming mistakes, so registration fails fast.
func (r *Registry) Register(name, description, schemaJSON string, identityBound, mutating bool, handler Handler) error {
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	schema, err := jsonschema.CompileString(name+".json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compiling schema for %s: %w", name, err)
	}
	r.tools[name] = &Tool{
		Name:          name,
		Description:   description,
		IdentityBound: identityBound,
		Mutating:      mutating,
		schema:        schema,
		handler:       handler,
	}
	return nil
}

// mustRegister panics on registration failure; used with the built-in
// tool set whose schemas are static.
func (r *Registry) mustRegister(name, description, schemaJSON string, identityBound, mutating bool, handler Handler) {
	if err := r.Register(name, description, schemaJSON, identityBound, mutating, handler); err != nil {
		panic(err)
	}
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions exposes the tool set in the shape the LLM boundary expects.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, name := range r.Names() {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  json.RawMessage(schemaFor(t.Name)),
		})
	}
	return defs
}

// Dispatch validates and executes one tool call on behalf of userID.
// Failures come back as a structured *Error, never as a panic; callers
// render them as tool messages.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall, userID string) (*Result, *Error) {
	tool, ok := r.tools[call.Name]
	if !ok {
		return nil, Errorf(KindValidation, "unknown tool %q", call.Name).
			WithHint("available tools: " + strings.Join(r.Names(), ", "))
	}
	if tool.IdentityBound && userID == "" {
		return nil, Errorf(KindAuth, "tool %s requires a verified caller", call.Name)
	}

	args, err := parseArgs(call.Arguments)
	if err != nil {
		return nil, Errorf(KindValidation, "arguments are not valid JSON: %v", err).
			WithHint("pass a single JSON object")
	}
	if tool.IdentityBound {
		// The verified identity always wins over anything the model sent.
		args["user_id"] = userID
	}
	if err := tool.schema.Validate(map[string]any(args)); err != nil {
		return nil, Errorf(KindValidation, "invalid arguments for %s: %v", call.Name, err)
	}

	result, handlerErr := tool.handler(ctx, Invocation{UserID: userID, Args: args})
	if handlerErr != nil {
		te := asToolError(handlerErr)
		r.logger.Warn("tool failed",
			"tool", call.Name,
			"kind", te.Kind,
			"error", te.Message)
		return nil, te
	}
	return result, nil
}

// parseArgs accepts either a JSON object or a JSON string containing one —
// models produce both — and parses exactly once at ingress.
func parseArgs(raw json.RawMessage) (Args, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return Args{}, nil
	}

	var asString string
	if err := json.Unmarshal([]byte(trimmed), &asString); err == nil {
		trimmed = asString
		if strings.TrimSpace(trimmed) == "" {
			return Args{}, nil
		}
	}

	var args Args
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}
