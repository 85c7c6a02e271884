package physics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownParam       = errors.New("physics: unknown parameter")
	ErrInvalidParam       = errors.New("physics: invalid parameter value")
	ErrUnknownInteraction = errors.New("physics: unknown interaction")
)

// Interaction is a radial pair potential with a finite cutoff.
type Interaction interface {
	Name() string
	V(r float64) float64
	Cutoff() float64
	GetParams() map[string]float64
	SetParam(name string, v float64) error
}

var interactions = map[string]func() Interaction{
	"constant":      func() Interaction { return NewConstant() },
	"shoulder":      func() Interaction { return NewSquareShoulder() },
	"lennard-jones": func() Interaction { return NewLennardJones() },
	"yukawa":        func() Interaction { return NewYukawa() },
}

// New returns the named interaction with its default parameters, then
// applies params on top.
func New(name string, params map[string]float64) (Interaction, error) {
	fn, ok := interactions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownInteraction, name, Names())
	}
	in := fn()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := in.SetParam(k, params[k]); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func Names() []string {
	names := make([]string, 0, len(interactions))
	for name := range interactions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func positive(name string, v float64) error {
	if !(v > 0) {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParam, name, v)
	}
	return nil
}

func unknown(model, name string) error {
	return fmt.Errorf("%w: %s has no %q", ErrUnknownParam, model, name)
}
