package chart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/kalambet/chartdeck/internal/dataset"
)

// ErrInvalidFilter is returned for filter expressions that do not compile or
// do not evaluate to a boolean.
var ErrInvalidFilter = errors.New("invalid filter")

// rowFilter evaluates boolean expressions such as `Sales > 10` against a row.
// Compiled programs are cached by expression text. Programs are compiled
// against an empty environment so column types are resolved per row.
type rowFilter struct {
	cache sync.Map // expression → *vm.Program
}

func (f *rowFilter) compile(expression string) (*vm.Program, error) {
	if cached, ok := f.cache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(expression, expr.Env(map[string]any{}), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	f.cache.Store(expression, program)
	return program, nil
}

// Apply returns the rows for which expression is true. An empty expression
// keeps every row.
func (f *rowFilter) Apply(expression string, rows []dataset.Record) ([]dataset.Record, error) {
	if expression == "" {
		return rows, nil
	}
	program, err := f.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidFilter, expression, err)
	}
	var out []dataset.Record
	for i, row := range rows {
		res, err := expr.Run(program, row.Env())
		if err != nil {
			return nil, fmt.Errorf("%w %q on row %d: %w", ErrInvalidFilter, expression, i+1, err)
		}
		if keep, _ := res.(bool); keep {
			out = append(out, row)
		}
	}
	return out, nil
}
