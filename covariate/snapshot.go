package covariate

import "time"

// Snapshot is the set of covariates for a person and their parents at one
// date. Nil fields are absent, never zero.
type Snapshot struct {
	Date time.Time

	Income              *float64
	WageIncome          *float64
	Education           *string
	SocioeconomicStatus *string
	FamilySize          *int32
	Municipality        *int32
	FamilyType          *string
	Citizenship         *string
	CivilStatus         *string

	FatherIncome              *float64
	FatherEducation           *string
	FatherSocioeconomicStatus *string

	MotherIncome              *float64
	MotherEducation           *string
	MotherSocioeconomicStatus *string
}

// PersonCovariates are the resolved covariates of one person. Any field may
// be nil.
type PersonCovariates struct {
	Education    *Covariate
	Income       *Covariate
	Occupation   *Covariate
	Demographics *Covariate
}

// NewSnapshot copies the person's own fields and, when present, the
// parents' income, education and occupation into a flat snapshot.
func NewSnapshot(date time.Time, person PersonCovariates, father, mother *PersonCovariates) Snapshot {
	s := Snapshot{Date: date}

	s.Income, s.WageIncome = incomeFields(person.Income)
	s.Education = educationField(person.Education)
	s.SocioeconomicStatus = occupationField(person.Occupation)

	if d := person.Demographics; d != nil && d.Demographics != nil {
		s.FamilySize = clonePtr(d.Demographics.FamilySize)
		s.Municipality = clonePtr(d.Demographics.Municipality)
		s.FamilyType = clonePtr(d.Demographics.FamilyType)
		s.Citizenship = clonePtr(d.Demographics.Citizenship)
		s.CivilStatus = clonePtr(d.Demographics.CivilStatus)
	}

	if father != nil {
		s.FatherIncome, _ = incomeFields(father.Income)
		s.FatherEducation = educationField(father.Education)
		s.FatherSocioeconomicStatus = occupationField(father.Occupation)
	}
	if mother != nil {
		s.MotherIncome, _ = incomeFields(mother.Income)
		s.MotherEducation = educationField(mother.Education)
		s.MotherSocioeconomicStatus = occupationField(mother.Occupation)
	}
	return s
}

func incomeFields(c *Covariate) (amount, wage *float64) {
	if c == nil || c.Income == nil {
		return nil, nil
	}
	return Ptr(c.Income.Amount), clonePtr(c.Income.WageIncome)
}

func educationField(c *Covariate) *string {
	if c == nil || c.Education == nil {
		return nil
	}
	return Ptr(c.Education.Level)
}

func occupationField(c *Covariate) *string {
	if c == nil || c.Occupation == nil {
		return nil
	}
	return Ptr(c.Occupation.Code)
}
