// Package evaluator is the opaque boundary to the expression/template
// language (spec.md §2 "Expression / Template Evaluator"). The rest of the
// engine only ever calls Evaluator.Eval; nothing else in the codebase knows
// that expr-lang is underneath.
package evaluator

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/prana-run/prana/internal/domain"
)

// Evaluator evaluates a string expression against a context mapping,
// returning a scalar or structured value.
type Evaluator interface {
	Eval(expression string, context map[string]any) (any, error)
}

// exprEvaluator is the expr-lang-backed implementation, with a compiled
// program cache keyed by source text (expressions recur across many node
// invocations within a run index loop, so compilation cost is amortized).
type exprEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// New returns the default Evaluator.
func New() Evaluator {
	return &exprEvaluator{cache: make(map[string]*vm.Program)}
}

func (e *exprEvaluator) Eval(expression string, context map[string]any) (any, error) {
	program, err := e.compiled(expression)
	if err != nil {
		return nil, domain.NewError(domain.ErrExpression,
			fmt.Sprintf("failed to compile expression %q", expression), err)
	}

	result, err := expr.Run(program, context)
	if err != nil {
		return nil, domain.NewError(domain.ErrExpression,
			fmt.Sprintf("failed to evaluate expression %q", expression), err)
	}
	return result, nil
}

func (e *exprEvaluator) compiled(expression string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = program
	e.mu.Unlock()
	return program, nil
}

// EvalBool evaluates an expression and requires a boolean result, used for
// conditional-edge and IF-style handlers.
func EvalBool(ev Evaluator, expression string, context map[string]any) (bool, error) {
	result, err := ev.Eval(expression, context)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, domain.NewError(domain.ErrExpression,
			fmt.Sprintf("expression %q did not evaluate to a boolean (got %T)", expression, result), nil)
	}
	return b, nil
}
