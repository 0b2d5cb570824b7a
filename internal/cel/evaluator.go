// Package cel compiles CEL row predicates. Each row is bound to the
// variable "_", so `_.estado == "entregado" && _.monto > 100` keeps the
// delivered rows above 100.
package cel

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	celext "github.com/google/cel-go/ext"
)

// ErrNotBool is returned when a predicate yields a non-boolean value.
var ErrNotBool = errors.New("expression did not evaluate to a bool")

// Evaluator compiles predicates against a shared environment.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with the standard extension libraries.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	all := make([]cel.EnvOption, 0, 6+len(opts))
	all = append(all,
		cel.Variable("_", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	all = append(all, opts...)
	return cel.NewEnv(all...)
}

// Predicate is a compiled boolean expression over one row.
type Predicate struct {
	expr string
	prg  cel.Program
}

// Compile parses and type-checks expr. Expressions whose static type is
// neither bool nor dyn are rejected up front.
func (e *Evaluator) Compile(expr string) (*Predicate, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q has type %s", ErrNotBool, expr, out)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Predicate{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (p *Predicate) String() string { return p.expr }

// Match evaluates the predicate against row.
func (p *Predicate) Match(row any) (bool, error) {
	val, _, err := p.prg.Eval(map[string]any{"_": row})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	b, ok := val.(types.Bool)
	if !ok {
		return false, fmt.Errorf("%w: got %s", ErrNotBool, val.Type().TypeName())
	}
	return bool(b), nil
}

// Filter returns the rows the predicate accepts, in order. Rows the
// predicate cannot evaluate (a missing field, a type mismatch) are dropped
// and counted in skipped.
func (p *Predicate) Filter(rows []any) (kept []any, skipped int) {
	kept = make([]any, 0, len(rows))
	for _, row := range rows {
		ok, err := p.Match(row)
		if err != nil {
			skipped++
			continue
		}
		if ok {
			kept = append(kept, row)
		}
	}
	return kept, skipped
}
