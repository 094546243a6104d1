package store

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/hupe1980/regcov/covariate"
	"github.com/hupe1980/regcov/register"
	"github.com/hupe1980/regcov/resource"
	"github.com/hupe1980/regcov/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func release(recs ...arrow.Record) {
	for _, r := range recs {
		r.Release()
	}
}

func befRecord() arrow.Record {
	return testutil.NewRecord(
		testutil.Strings("PNR", "010100-1234", "020200-5678"),
		testutil.Int32s(ColFamilySize, 3, nil),
		testutil.Int32s(ColMunicipality, 101, 147),
		testutil.Strings(ColFamilyType, "1", nil),
		testutil.Strings(ColCitizenship, "5100", "5170"),
		testutil.Strings(ColCivilStatus, "G", "U"),
		testutil.Strings(ColGender, "M", "K"),
		testutil.Int32s(ColAge, 40, 23),
		testutil.Int32s(ColChildrenCount, 1, 0),
	)
}

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := New(opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDemographics_QuarterlyLookup(t *testing.T) {
	s := newStore(t)

	rec := befRecord()
	defer release(rec)
	require.NoError(t, s.AddBefData("202303", []arrow.Record{rec}))

	c, err := s.Covariate("010100-1234", covariate.Demographics, testutil.Date(2023, 2, 15))
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, c.Demographics.FamilySize)
	assert.Equal(t, int32(3), *c.Demographics.FamilySize)
	assert.Equal(t, int32(101), *c.Demographics.Municipality)
	assert.Equal(t, "5100", *c.Demographics.Citizenship)
	assert.Equal(t, "M", *c.Demographics.Gender)

	// Next quarter has no partition; no fallback.
	c, err = s.Covariate("010100-1234", covariate.Demographics, testutil.Date(2023, 4, 1))
	require.NoError(t, err)
	assert.Nil(t, c)

	// Row exists, attribute null.
	c, err = s.Covariate("020200-5678", covariate.Demographics, testutil.Date(2023, 3, 31))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Nil(t, c.Demographics.FamilySize)
	assert.Nil(t, c.Demographics.FamilyType)
	assert.Equal(t, int32(147), *c.Demographics.Municipality)

	// Unknown person.
	c, err = s.Covariate("999999-0000", covariate.Demographics, testutil.Date(2023, 2, 15))
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestIncome(t *testing.T) {
	s := newStore(t)

	rec := testutil.NewRecord(
		testutil.Strings("PNR", "a", "b", "c"),
		testutil.Float64s(ColIncome, 500000.0, nil, nil),
		testutil.Float64s(ColIncomeLegacy, nil, 250000.0, nil),
		testutil.Float64s(ColWage, 400000.0, nil, nil),
		testutil.Int32s(ColEmploymentSts, 1, nil, 2),
	)
	defer release(rec)
	require.NoError(t, s.AddIndData("2020", []arrow.Record{rec}))

	date := testutil.Date(2020, 6, 30)

	c, err := s.Covariate("a", covariate.Income, date)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 500000.0, c.Income.Amount)
	assert.Equal(t, ColIncome, c.Income.Source)
	assert.Equal(t, "DKK", c.Income.Currency)
	require.NotNil(t, c.Income.WageIncome)
	assert.Equal(t, 400000.0, *c.Income.WageIncome)
	assert.Equal(t, int32(1), *c.Income.EmploymentStatus)

	c, err = s.Covariate("b", covariate.Income, date)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 250000.0, c.Income.Amount)
	assert.Equal(t, ColIncomeLegacy, c.Income.Source)
	assert.Nil(t, c.Income.WageIncome)

	// No amount, no income covariate.
	c, err = s.Covariate("c", covariate.Income, date)
	require.NoError(t, err)
	assert.Nil(t, c)

	// Other year.
	c, err = s.Covariate("a", covariate.Income, testutil.Date(2021, 1, 1))
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestOccupation(t *testing.T) {
	s := newStore(t)

	rec := testutil.NewRecord(
		testutil.Strings("CPR", "a", "b", "c"),
		testutil.Int32s(ColSocio13, 110, nil, nil),
		testutil.Int32s(ColSocio, 11, 22, nil),
		testutil.Int32s(ColPreSocio, nil, nil, 7),
	)
	defer release(rec)
	require.NoError(t, s.AddAkmData("2019", []arrow.Record{rec}))

	date := testutil.Date(2019, 12, 31)

	c, err := s.Covariate("a", covariate.Occupation, date)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "110", c.Occupation.Code)
	assert.Equal(t, "SOCIO", c.Occupation.Classification)
	assert.Equal(t, int32(11), *c.Occupation.Socio)
	assert.Equal(t, "110", c.Metadata["socio13_value"])

	c, err = s.Covariate("b", covariate.Occupation, date)
	require.NoError(t, err)
	assert.Equal(t, "22", c.Occupation.Code)

	c, err = s.Covariate("c", covariate.Occupation, date)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "0", c.Occupation.Code)
	assert.Equal(t, int32(7), *c.Occupation.PreSocio)
}

func TestEducation_LatestValidObservation(t *testing.T) {
	s := newStore(t)

	r1 := testutil.NewRecord(
		testutil.Strings("PNR", "a", "b"),
		testutil.Strings(ColEducation, "10", "35"),
		testutil.Dates(ColEducationFrom, testutil.Date(2005, 6, 1), nil),
	)
	r2 := testutil.NewRecord(
		testutil.Strings("PNR", "a"),
		testutil.Strings(ColEducation, "65"),
		testutil.Dates(ColEducationFrom, testutil.Date(2012, 6, 1)),
	)
	defer release(r1, r2)

	require.NoError(t, s.AddUddfData("2020", []arrow.Record{r2}))
	require.NoError(t, s.AddUddfData("2010", []arrow.Record{r1}))

	tests := []struct {
		name string
		pnr  string
		date time.Time
		want string
	}{
		{"before first", "a", testutil.Date(2000, 1, 1), ""},
		{"first valid", "a", testutil.Date(2005, 6, 1), "10"},
		{"between", "a", testutil.Date(2010, 1, 1), "10"},
		{"second valid", "a", testutil.Date(2020, 1, 1), "65"},
		{"no valid-from date", "b", testutil.Date(1990, 1, 1), "35"},
		{"unknown", "zzz", testutil.Date(2020, 1, 1), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := s.Covariate(tc.pnr, covariate.Education, tc.date)
			require.NoError(t, err)
			if tc.want == "" {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			assert.Equal(t, tc.want, c.Education.Level)
		})
	}
}

func TestEducation_IntegerCodes(t *testing.T) {
	s := newStore(t)

	rec := testutil.NewRecord(
		testutil.Strings("PNR", "a"),
		testutil.Int32s(ColEducation, 5080),
	)
	defer release(rec)
	require.NoError(t, s.AddUddfData("uddf202009", []arrow.Record{rec}))

	c, err := s.Covariate("a", covariate.Education, testutil.Date(2021, 1, 1))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "5080", c.Education.Level)
	assert.True(t, c.Education.ValidFrom.IsZero())
}

func TestAddPartition_Idempotent(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	s := newStore(t, WithController(rc))

	rec := befRecord()
	defer release(rec)

	require.NoError(t, s.AddBefData("202303", []arrow.Record{rec}))
	usage := rc.MemoryUsage()
	assert.Positive(t, usage)
	assert.Equal(t, usage, s.MemoryUsage())

	first, err := s.Covariate("010100-1234", covariate.Demographics, testutil.Date(2023, 1, 1))
	require.NoError(t, err)

	require.NoError(t, s.AddBefData("202303", []arrow.Record{rec}))
	second, err := s.Covariate("010100-1234", covariate.Demographics, testutil.Date(2023, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"202303"}, s.Periods(register.BEF))
	assert.Equal(t, usage, rc.MemoryUsage())
	assert.Equal(t, 2*usage, rc.PeakMemory())

	require.NoError(t, s.Close())
	assert.Zero(t, rc.MemoryUsage())
}

func TestAddPartition_InvalidKey(t *testing.T) {
	s := newStore(t)
	rec := befRecord()
	defer release(rec)

	err := s.AddBefData("2005", []arrow.Record{rec})
	assert.ErrorIs(t, err, register.ErrInvalidFormat)

	err = s.AddIndData("20a5", []arrow.Record{rec})
	assert.ErrorIs(t, err, register.ErrInvalidFormat)

	err = s.AddPartition(register.Name("lpr"), "2005", []arrow.Record{rec})
	assert.ErrorIs(t, err, register.ErrInvalidOperation)

	assert.Empty(t, s.Periods(register.BEF))
}

func TestAddPartition_MemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1})
	s := newStore(t, WithController(rc))

	rec := befRecord()
	defer release(rec)

	err := s.AddBefData("202303", []arrow.Record{rec})
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	_, ok := s.Partition(register.BEF, "202303")
	assert.False(t, ok)
}

func TestCovariate_UnknownType(t *testing.T) {
	s := newStore(t)
	_, err := s.Covariate("a", covariate.Type(99), testutil.Date(2020, 1, 1))
	assert.ErrorIs(t, err, register.ErrInvalidOperation)
}

func TestResolve(t *testing.T) {
	s := newStore(t)

	bef := befRecord()
	ind := testutil.NewRecord(
		testutil.Strings("PNR", "010100-1234"),
		testutil.Float64s(ColIncome, 123.0),
	)
	defer release(bef, ind)

	require.NoError(t, s.AddBefData("202303", []arrow.Record{bef}))
	require.NoError(t, s.AddIndData("2023", []arrow.Record{ind}))

	pc, err := s.Resolve("010100-1234", testutil.Date(2023, 3, 1))
	require.NoError(t, err)
	assert.NotNil(t, pc.Demographics)
	assert.NotNil(t, pc.Income)
	assert.Nil(t, pc.Occupation)
	assert.Nil(t, pc.Education)
}

func TestLoadFamilyRelations(t *testing.T) {
	s := newStore(t)
	assert.Nil(t, s.Family())

	rec := testutil.FamilyRecord(testutil.Person{
		PNR:       "C1",
		BirthDate: testutil.Date(2010, 1, 1),
		FatherID:  "F1",
	})
	defer rec.Release()

	require.NoError(t, s.LoadFamilyRelations([]arrow.Record{rec}))
	require.NotNil(t, s.Family())

	parents, ok := s.Family().Parents("C1")
	require.True(t, ok)
	assert.Equal(t, "F1", parents.FatherID)

	bad := testutil.NewRecord(testutil.Strings("PNR", "X"))
	defer bad.Release()
	assert.Error(t, s.LoadFamilyRelations([]arrow.Record{bad}))
	assert.Equal(t, 1, s.Family().Len())
}
