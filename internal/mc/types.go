package mc

import (
	"fmt"
	"strings"
)

// Source is the random stream consumed by the Metropolis rule and by
// random-site selection. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

type Mode int

const (
	// ModeSingleSite attempts one flip at a uniformly drawn site per step.
	ModeSingleSite Mode = iota
	// ModeSweep attempts one flip at every site, row-major, per step.
	ModeSweep
	// ModeRandomSweep attempts Sites() flips at uniformly drawn sites per step.
	ModeRandomSweep
)

func (m Mode) String() string {
	switch m {
	case ModeSingleSite:
		return "single"
	case ModeSweep:
		return "sweep"
	case ModeRandomSweep:
		return "random-sweep"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) Valid() bool { return m >= ModeSingleSite && m <= ModeRandomSweep }

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "single-site":
		return ModeSingleSite, nil
	case "sweep":
		return ModeSweep, nil
	case "random-sweep", "random":
		return ModeRandomSweep, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func Modes() []Mode { return []Mode{ModeSingleSite, ModeSweep, ModeRandomSweep} }

// Sample is the state observed after one step of a run.
type Sample struct {
	Step       int
	Energy     float64
	Population int
}

type Averages struct {
	Energy     float64
	Population float64
	Steps      int
}

type Acceptance struct {
	Attempted int64
	Accepted  int64
}

func (a Acceptance) Rate() float64 {
	if a.Attempted == 0 {
		return 0
	}
	return float64(a.Accepted) / float64(a.Attempted)
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s Sample)

func (f ObserverFunc) OnStep(s Sample) { f(s) }
