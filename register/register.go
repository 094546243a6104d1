package register

import (
	"fmt"
	"slices"
)

// Name identifies a register family.
type Name string

const (
	// AKM is the employment register (annual).
	AKM Name = "akm"
	// IND is the income register (annual).
	IND Name = "ind"
	// BEF is the population/family register (quarterly).
	BEF Name = "bef"
	// UDDF is the education register (event-scoped).
	UDDF Name = "uddf"
)

// Granularity describes how a register is partitioned in time.
type Granularity uint8

const (
	// Annual registers are keyed "YYYY".
	Annual Granularity = iota + 1
	// Quarterly registers are keyed "YYYYMM" with MM the quarter-end month.
	Quarterly
	// EventScoped registers are not period keyed; every partition is scanned.
	EventScoped
)

func (g Granularity) String() string {
	switch g {
	case Annual:
		return "annual"
	case Quarterly:
		return "quarterly"
	case EventScoped:
		return "event-scoped"
	default:
		return fmt.Sprintf("granularity(%d)", uint8(g))
	}
}

var granularities = map[Name]Granularity{
	AKM:  Annual,
	IND:  Annual,
	BEF:  Quarterly,
	UDDF: EventScoped,
}

// GranularityOf returns the partition granularity of a known register.
func GranularityOf(name Name) (Granularity, error) {
	g, ok := granularities[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown register %q", ErrInvalidOperation, name)
	}
	return g, nil
}

// Names returns all known registers in a stable order.
func Names() []Name {
	names := make([]Name, 0, len(granularities))
	for n := range granularities {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
