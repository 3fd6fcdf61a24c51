package equations

import (
	"fmt"
	"sort"

	"github.com/san-kum/milnesim/internal/dynamo"
)

type Equation interface {
	dynamo.Derivative
	dynamo.Series
	dynamo.Solution
	Name() string
	Expr() string
	SetInitial(x0, y0 float64)
}

var registry = map[string]func() Equation{
	"x+y":  func() Equation { return NewXPlusY() },
	"x2+y": func() Equation { return NewXSquaredPlusY() },
	"x-y":  func() Equation { return NewXMinusY() },
}

// Lookup returns a fresh equation by name with initial condition y(0) = 1.
func Lookup(name string) (Equation, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown equation: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
