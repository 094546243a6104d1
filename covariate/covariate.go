package covariate

import (
	"maps"
	"time"
)

// Covariate is a resolved register value. Exactly one payload pointer,
// the one matching Type, is set.
type Covariate struct {
	Type         Type
	Education    *EducationValue
	Income       *IncomeValue
	Occupation   *OccupationValue
	Demographics *DemographicsValue
	Metadata     map[string]string
}

// EducationValue is the highest completed education at a date.
type EducationValue struct {
	Level     string    // HFAUDD
	ValidFrom time.Time // zero if the register has no valid-from column
}

// IncomeValue is the annual personal income.
type IncomeValue struct {
	Amount           float64
	Currency         string
	Source           string // column the amount was read from
	WageIncome       *float64
	EmploymentStatus *int32
}

// OccupationValue is the socioeconomic classification.
type OccupationValue struct {
	Code           string
	Classification string
	Socio          *int32
	Socio02        *int32
	Socio13        *int32
	PreSocio       *int32
}

// DemographicsValue holds household and residence attributes.
type DemographicsValue struct {
	FamilySize    *int32
	Municipality  *int32
	FamilyType    *string
	Citizenship   *string
	CivilStatus   *string
	Gender        *string
	Age           *int32
	ChildrenCount *int32
}

// NewEducation creates an education covariate.
func NewEducation(level string, validFrom time.Time) *Covariate {
	return &Covariate{Type: Education, Education: &EducationValue{Level: level, ValidFrom: validFrom}}
}

// NewIncome creates an income covariate in DKK.
func NewIncome(amount float64, source string) *Covariate {
	return &Covariate{Type: Income, Income: &IncomeValue{Amount: amount, Currency: "DKK", Source: source}}
}

// NewOccupation creates an occupation covariate.
func NewOccupation(code, classification string) *Covariate {
	return &Covariate{Type: Occupation, Occupation: &OccupationValue{Code: code, Classification: classification}}
}

// NewDemographics creates an empty demographics covariate.
func NewDemographics() *Covariate {
	return &Covariate{Type: Demographics, Demographics: &DemographicsValue{}}
}

// WithMetadata sets a metadata entry and returns c.
func (c *Covariate) WithMetadata(key, value string) *Covariate {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[key] = value
	return c
}

// Clone returns a deep copy. Clone of nil is nil.
func (c *Covariate) Clone() *Covariate {
	if c == nil {
		return nil
	}
	out := &Covariate{Type: c.Type, Metadata: maps.Clone(c.Metadata)}
	if c.Education != nil {
		e := *c.Education
		out.Education = &e
	}
	if c.Income != nil {
		i := *c.Income
		i.WageIncome = clonePtr(i.WageIncome)
		i.EmploymentStatus = clonePtr(i.EmploymentStatus)
		out.Income = &i
	}
	if c.Occupation != nil {
		o := *c.Occupation
		o.Socio = clonePtr(o.Socio)
		o.Socio02 = clonePtr(o.Socio02)
		o.Socio13 = clonePtr(o.Socio13)
		o.PreSocio = clonePtr(o.PreSocio)
		out.Occupation = &o
	}
	if c.Demographics != nil {
		d := *c.Demographics
		d.FamilySize = clonePtr(d.FamilySize)
		d.Municipality = clonePtr(d.Municipality)
		d.FamilyType = clonePtr(d.FamilyType)
		d.Citizenship = clonePtr(d.Citizenship)
		d.CivilStatus = clonePtr(d.CivilStatus)
		d.Gender = clonePtr(d.Gender)
		d.Age = clonePtr(d.Age)
		d.ChildrenCount = clonePtr(d.ChildrenCount)
		out.Demographics = &d
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
