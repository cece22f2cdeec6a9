package service

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// PolicyInput is the variable set exposed to withdrawal policy expressions.
type PolicyInput struct {
	Amount             float64
	Balance            float64
	DailySpent         float64
	DailyLimit         float64
	RequiredSignatures int
}

// PolicyEvaluator evaluates fund-configured withdrawal policies written in
// CEL, e.g. `amount <= balance * 0.25 && required_signatures >= 3`.
// Compiled programs are cached per expression.
type PolicyEvaluator struct {
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewPolicyEvaluator creates a new policy evaluator with caching
func NewPolicyEvaluator() *PolicyEvaluator {
	return &PolicyEvaluator{
		cache: make(map[string]cel.Program),
	}
}

// Allow evaluates the expression against the input and returns whether the
// withdrawal may proceed.
func (e *PolicyEvaluator) Allow(expr string, in PolicyInput) (bool, error) {
	// Check cache first
	e.mu.RLock()
	prg, exists := e.cache[expr]
	e.mu.RUnlock()

	if !exists {
		var err error
		prg, err = e.compile(expr)
		if err != nil {
			return false, err
		}

		e.mu.Lock()
		e.cache[expr] = prg
		e.mu.Unlock()
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"amount":              in.Amount,
		"balance":             in.Balance,
		"daily_spent":         in.DailySpent,
		"daily_limit":         in.DailyLimit,
		"required_signatures": int64(in.RequiredSignatures),
	})
	if err != nil {
		return false, fmt.Errorf("policy evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy expression did not return boolean, got %T", out.Value())
	}

	return result, nil
}

func (e *PolicyEvaluator) compile(expr string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("balance", cel.DoubleType),
		cel.Variable("daily_spent", cel.DoubleType),
		cel.Variable("daily_limit", cel.DoubleType),
		cel.Variable("required_signatures", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("policy compilation error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return prg, nil
}

// ClearCache clears the compiled expression cache
func (e *PolicyEvaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cel.Program)
}
