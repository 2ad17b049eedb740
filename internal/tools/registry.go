// Package tools holds the function tools advertised to the assistant and
// turns its pending tool calls into outputs.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/xiaot623/gogo/datachat/internal/adapter/assistant"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// Result is what a tool produced: the JSON output string relayed to the
// assistant, and whether that output reports a failure.
type Result struct {
	Output string
	Failed bool
}

// ExecutorFunc runs a parsed invocation against a session store.
type ExecutorFunc func(ctx context.Context, storePath string, inv domain.ToolInvocation) Result

// Tool is a function tool with a JSON schema for its arguments.
type Tool struct {
	Name        string
	Description string
	Kind        domain.ToolKind
	Parameters  json.RawMessage
	Exec        ExecutorFunc
}

type entry struct {
	tool   Tool
	schema *gojsonschema.Schema
}

// Registry stores tools keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// Register adds a tool. Its parameter schema is compiled up front.
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if tool.Exec == nil {
		return fmt.Errorf("executor is required")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(tool.Parameters))
	if err != nil {
		return fmt.Errorf("invalid parameter schema for %s: %w", tool.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool already registered: %s", tool.Name)
	}
	r.tools[tool.Name] = entry{tool: tool, schema: schema}
	return nil
}

// MustRegister adds a tool or panics.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the function tool definitions sent with each run.
func (r *Registry) Definitions() []assistant.ToolDefinition {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]assistant.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := r.tools[name].tool
		defs = append(defs, assistant.ToolDefinition{
			Type: "function",
			Function: assistant.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return defs
}

// Parse validates a pending call against its tool's schema and decodes it
// into a typed invocation. Unknown tools and bad arguments are not errors:
// they yield an invocation of kind unknown or invalid carrying Err.
func (r *Registry) Parse(call domain.PendingToolCall) domain.ToolInvocation {
	inv := domain.ToolInvocation{CallID: call.ID, Name: call.Name}

	r.mu.RLock()
	e, ok := r.tools[call.Name]
	r.mu.RUnlock()
	if !ok {
		inv.Kind = domain.ToolKindUnknown
		inv.Err = fmt.Errorf("unknown tool %q; available tools: %s", call.Name, strings.Join(r.Names(), ", "))
		return inv
	}

	args := strings.TrimSpace(call.Arguments)
	if args == "" {
		args = "{}"
	}
	result, err := e.schema.Validate(gojsonschema.NewStringLoader(args))
	if err != nil {
		inv.Kind = domain.ToolKindInvalid
		inv.Err = fmt.Errorf("arguments are not valid JSON: %w", err)
		return inv
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, verr := range result.Errors() {
			msgs[i] = verr.String()
		}
		inv.Kind = domain.ToolKindInvalid
		inv.Err = fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
		return inv
	}

	inv.Kind = e.tool.Kind
	if e.tool.Kind == domain.ToolKindSQLQuery {
		var sqlArgs domain.SQLQueryArgs
		if err := json.Unmarshal([]byte(args), &sqlArgs); err != nil {
			inv.Kind = domain.ToolKindInvalid
			inv.Err = fmt.Errorf("invalid arguments: %w", err)
			return inv
		}
		inv.SQL = &sqlArgs
	}
	return inv
}

// Execute produces the output for one invocation. Invocations that failed to
// parse produce a JSON error payload so the assistant can correct itself.
func (r *Registry) Execute(ctx context.Context, storePath string, inv domain.ToolInvocation) domain.ToolOutput {
	out := domain.ToolOutput{ToolCallID: inv.CallID}
	if inv.Err != nil {
		out.Output = errorOutput(inv.Name, inv.Err)
		out.Failed = true
		return out
	}

	r.mu.RLock()
	e, ok := r.tools[inv.Name]
	r.mu.RUnlock()
	if !ok {
		out.Output = errorOutput(inv.Name, fmt.Errorf("unknown tool %q", inv.Name))
		out.Failed = true
		return out
	}
	res := e.tool.Exec(ctx, storePath, inv)
	out.Output = res.Output
	out.Failed = res.Failed
	return out
}

func errorOutput(name string, err error) string {
	data, _ := json.Marshal([]map[string]string{{
		"error": fmt.Sprintf("Tool call %s could not be executed: %v", name, err),
	}})
	return string(data)
}
