// Package policy evaluates Rego statement policies before a query reaches a store.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decision values produced by a statement policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document the policy sees for one statement.
type Input struct {
	Query          string   `json:"query"`
	Keyword        string   `json:"keyword"`
	StatementCount int      `json:"statement_count"`
	Functions      []string `json:"functions"`
}

// Result is the policy's verdict on one statement.
type Result struct {
	Decision string
	Reason   string
}

// Allowed reports whether the statement may run.
func (r Result) Allowed() bool {
	return r.Decision == DecisionAllow
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
// The policy must define data.statement_policy.decision as a string and may
// define data.statement_policy.reason.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("decision := data.statement_policy.decision; reason := data.statement_policy.reason"),
		rego.Module("statement_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks one statement against the policy.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Result, error) {
	doc := map[string]interface{}{
		"query":           input.Query,
		"keyword":         input.Keyword,
		"statement_count": input.StatementCount,
		"functions":       toInterfaces(input.Functions),
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return Result{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 {
		// The policy defines defaults for both bindings, so an empty result
		// set means it failed to compile the way we expect.
		return Result{Decision: DecisionBlock, Reason: "statement policy produced no decision"}, nil
	}

	decision, _ := results[0].Bindings["decision"].(string)
	reason, _ := results[0].Bindings["reason"].(string)
	if decision == "" {
		return Result{Decision: DecisionBlock, Reason: "statement policy returned an unexpected type"}, nil
	}
	return Result{Decision: decision, Reason: reason}, nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// DefaultPolicy only lets single SELECT statements through and keeps the
// extension loader out of reach.
const DefaultPolicy = `
package statement_policy

default decision = "allow"
default reason = ""

blocked_functions = {"LOAD_EXTENSION", "READFILE", "WRITEFILE", "EDIT", "FTS3_TOKENIZER"}

used_blocked = [fn | fn := input.functions[_]; blocked_functions[fn]]

decision = "block" {
	input.keyword != "SELECT"
}

decision = "block" {
	input.statement_count > 1
}

decision = "block" {
	count(used_blocked) > 0
}

reason = "only SELECT statements are permitted" {
	input.keyword != "SELECT"
}

reason = "multiple statements are not permitted" {
	input.keyword == "SELECT"
	input.statement_count > 1
}

reason = sprintf("function %s is not permitted", [used_blocked[0]]) {
	input.keyword == "SELECT"
	input.statement_count <= 1
	count(used_blocked) > 0
}
`
