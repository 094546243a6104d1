package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hupe1980/regcov/covariate"
	"github.com/hupe1980/regcov/register"
)

// Register column names.
const (
	ColSocio13  = "SOCIO13"
	ColSocio    = "SOCIO"
	ColSocio02  = "SOCIO02"
	ColPreSocio = "PRE_SOCIO"

	ColIncome        = "PERINDKIALT_13"
	ColIncomeLegacy  = "PERINDKIALT"
	ColWage          = "LOENMV_13"
	ColWageLegacy    = "LOENMV"
	ColEmploymentSts = "BESKST13"

	ColFamilySize    = "ANTPERSF"
	ColMunicipality  = "KOM"
	ColFamilyType    = "FAMILIE_TYPE"
	ColCitizenship   = "STATSB"
	ColCivilStatus   = "CIVST"
	ColGender        = "KOEN"
	ColAge           = "ALDER"
	ColChildrenCount = "ANTBOERNF"

	ColEducation     = "HFAUDD"
	ColEducationFrom = "HF_VFRA"
)

// occupationClassification labels occupation codes taken from the SOCIO family.
const occupationClassification = "SOCIO"

func (s *Store) occupation(pnr string, date time.Time) (*covariate.Covariate, error) {
	row, ok := s.lookup(register.AKM, pnr, date)
	if !ok {
		return nil, nil
	}

	socio13 := optInt32(row, ColSocio13)
	socio := optInt32(row, ColSocio)
	socio02 := optInt32(row, ColSocio02)
	preSocio := optInt32(row, ColPreSocio)
	if socio13 == nil && socio == nil && socio02 == nil && preSocio == nil {
		return nil, nil
	}

	code := "0"
	if v, ok := row.FirstInt32(ColSocio13, ColSocio, ColSocio02); ok {
		code = strconv.FormatInt(int64(v), 10)
	}

	c := covariate.NewOccupation(code, occupationClassification)
	c.Occupation.Socio13 = socio13
	c.Occupation.Socio = socio
	c.Occupation.Socio02 = socio02
	c.Occupation.PreSocio = preSocio

	for key, v := range map[string]*int32{
		"socio13_value":   socio13,
		"socio_value":     socio,
		"socio02_value":   socio02,
		"pre_socio_value": preSocio,
	} {
		if v != nil {
			c.WithMetadata(key, strconv.FormatInt(int64(*v), 10))
		}
	}
	return c, nil
}

func (s *Store) income(pnr string, date time.Time) (*covariate.Covariate, error) {
	row, ok := s.lookup(register.IND, pnr, date)
	if !ok {
		return nil, nil
	}

	var (
		amount float64
		source string
	)
	for _, col := range []string{ColIncome, ColIncomeLegacy} {
		if v, ok := row.Float64(col); ok {
			amount, source = v, col
			break
		}
	}
	if source == "" {
		return nil, nil
	}

	c := covariate.NewIncome(amount, source)
	if v, ok := row.FirstFloat64(ColWage, ColWageLegacy); ok {
		c.Income.WageIncome = &v
	}
	c.Income.EmploymentStatus = optInt32(row, ColEmploymentSts)
	return c, nil
}

func (s *Store) demographics(pnr string, date time.Time) (*covariate.Covariate, error) {
	row, ok := s.lookup(register.BEF, pnr, date)
	if !ok {
		return nil, nil
	}

	c := covariate.NewDemographics()
	d := c.Demographics
	d.FamilySize = optInt32(row, ColFamilySize)
	d.Municipality = optInt32(row, ColMunicipality)
	d.FamilyType = optCode(row, ColFamilyType)
	d.Citizenship = optCode(row, ColCitizenship)
	d.CivilStatus = optCode(row, ColCivilStatus)
	d.Gender = optCode(row, ColGender)
	d.Age = optInt32(row, ColAge)
	d.ChildrenCount = optInt32(row, ColChildrenCount)
	return c, nil
}

// education scans every uddf partition in period-key order and answers
// with the latest observation dated on or before date.
func (s *Store) education(pnr string, date time.Time) (*covariate.Covariate, error) {
	byKey := s.partitions[register.UDDF]
	if len(byKey) == 0 {
		return nil, nil
	}

	series := covariate.NewSeries[*covariate.Covariate]()
	for _, key := range sortedKeys(byKey) {
		row, ok := byKey[key].FindRow(pnr)
		if !ok {
			continue
		}
		level, ok := row.Code(ColEducation)
		if !ok {
			continue
		}
		validFrom, _, err := row.Date(ColEducationFrom)
		if err != nil {
			return nil, fmt.Errorf("store: education for %s in uddf/%s: %w", pnr, key, err)
		}
		series.Add(covariate.TimeVaryingValue[*covariate.Covariate]{
			PNR:   pnr,
			Date:  validFrom,
			Value: covariate.NewEducation(level, validFrom),
		})
	}

	c, ok := series.At(register.Truncate(date))
	if !ok {
		return nil, nil
	}
	return c, nil
}

func optInt32(row register.RowRef, column string) *int32 {
	if v, ok := row.Int32(column); ok {
		return &v
	}
	return nil
}

func optCode(row register.RowRef, column string) *string {
	if v, ok := row.Code(column); ok {
		return &v
	}
	return nil
}
