package covariate

import "fmt"

// Type identifies a covariate family.
type Type uint8

const (
	// Education is read from the education register (uddf).
	Education Type = iota + 1
	// Income is read from the income register (ind).
	Income
	// Occupation is read from the employment register (akm).
	Occupation
	// Demographics is read from the population register (bef).
	Demographics
)

// Types returns all covariate types in declaration order.
func Types() []Type {
	return []Type{Education, Income, Occupation, Demographics}
}

func (t Type) String() string {
	switch t {
	case Education:
		return "education"
	case Income:
		return "income"
	case Occupation:
		return "occupation"
	case Demographics:
		return "demographics"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	for _, t := range Types() {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown covariate type %q", s)
}
