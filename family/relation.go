package family

import "time"

// Relation is one person's family record. Optional fields are empty or zero
// when unknown.
type Relation struct {
	PNR             string
	BirthDate       time.Time
	FatherID        string
	FatherBirthDate time.Time
	MotherID        string
	MotherBirthDate time.Time
	FamilyID        string
}

// Parents holds the known parent identifiers; an empty string means unknown.
type Parents struct {
	FatherID string
	MotherID string
}

// Parents returns the parent identifiers of r.
func (r Relation) Parents() Parents {
	return Parents{FatherID: r.FatherID, MotherID: r.MotherID}
}

// HasFather reports whether the father is known.
func (p Parents) HasFather() bool { return p.FatherID != "" }

// HasMother reports whether the mother is known.
func (p Parents) HasMother() bool { return p.MotherID != "" }
