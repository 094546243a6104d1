package snapshot

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/hupe1980/regcov/covariate"
	"github.com/hupe1980/regcov/family"
	"github.com/hupe1980/regcov/register"
	"github.com/hupe1980/regcov/store"
	"github.com/hupe1980/regcov/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func familyIndex(t *testing.T, people ...testutil.Person) *family.Index {
	t.Helper()
	rec := testutil.FamilyRecord(people...)
	defer rec.Release()
	idx, err := family.Load([]arrow.Record{rec})
	require.NoError(t, err)
	return idx
}

func TestSnapshot_FatherIncome(t *testing.T) {
	st := store.New()
	defer st.Close()

	ind := testutil.NewRecord(
		testutil.Strings("PNR", "F1", "C1"),
		testutil.Float64s(store.ColIncome, 500000.0, nil),
	)
	defer ind.Release()
	require.NoError(t, st.AddIndData("2020", []arrow.Record{ind}))

	fam := familyIndex(t, testutil.Person{
		PNR:       "C1",
		BirthDate: testutil.Date(2005, 3, 1),
		FatherID:  "F1",
	})

	c := NewComposer(st, fam)
	snap, err := c.Snapshot("C1", testutil.Date(2020, 6, 1))
	require.NoError(t, err)

	require.NotNil(t, snap.FatherIncome)
	assert.Equal(t, 500000.0, *snap.FatherIncome)
	assert.Nil(t, snap.Income)
	assert.Nil(t, snap.MotherIncome)
	assert.Nil(t, snap.MotherEducation)
	assert.Equal(t, testutil.Date(2020, 6, 1), snap.Date)
}

func TestSnapshot_OwnFields(t *testing.T) {
	date := testutil.Date(2021, 1, 1)

	m := testutil.NewMockStore()
	m.On("Covariate", "C1", covariate.Income, date).Return(covariate.NewIncome(100, "PERINDKIALT_13"), nil)
	m.On("Covariate", "C1", covariate.Education, date).Return(covariate.NewEducation("20", date), nil)
	m.On("Covariate", "C1", covariate.Occupation, date).Return(covariate.NewOccupation("110", "SOCIO"), nil)

	demo := covariate.NewDemographics()
	demo.Demographics.FamilySize = covariate.Ptr(int32(4))
	demo.Demographics.Citizenship = covariate.Ptr("5100")
	m.On("Covariate", "C1", covariate.Demographics, date).Return(demo, nil)

	m.On("Covariate", "M1", mock.Anything, date).Return(nil, nil)

	fam := familyIndex(t, testutil.Person{PNR: "C1", BirthDate: testutil.Date(2000, 1, 1), MotherID: "M1"})

	snap, err := NewComposer(m, fam).Snapshot("C1", date)
	require.NoError(t, err)

	assert.Equal(t, 100.0, *snap.Income)
	assert.Equal(t, "20", *snap.Education)
	assert.Equal(t, "110", *snap.SocioeconomicStatus)
	assert.Equal(t, int32(4), *snap.FamilySize)
	assert.Equal(t, "5100", *snap.Citizenship)
	assert.Nil(t, snap.MotherIncome)

	// Mother is resolved for three types only.
	m.AssertNumberOfCalls(t, "Covariate", 7)
}

func TestSnapshot_OwnErrorPropagates(t *testing.T) {
	date := testutil.Date(2021, 1, 1)
	boom := errors.New("boom")

	m := testutil.NewMockStore()
	m.On("Covariate", "C1", mock.Anything, date).Return(nil, boom)

	fam := familyIndex(t, testutil.Person{PNR: "C1", BirthDate: testutil.Date(2000, 1, 1)})

	_, err := NewComposer(m, fam).Snapshot("C1", date)
	assert.ErrorIs(t, err, boom)
}

func TestSnapshot_ParentErrorIsSoft(t *testing.T) {
	date := testutil.Date(2021, 1, 1)

	m := testutil.NewMockStore()
	m.On("Covariate", "C1", mock.Anything, date).Return(nil, nil)
	m.On("Covariate", "F1", mock.Anything, date).Return(nil, errors.New("corrupt"))
	m.On("Covariate", "M1", covariate.Income, date).Return(covariate.NewIncome(42, "PERINDKIALT_13"), nil)
	m.On("Covariate", "M1", mock.Anything, date).Return(nil, nil)

	fam := familyIndex(t, testutil.Person{
		PNR:       "C1",
		BirthDate: testutil.Date(2000, 1, 1),
		FatherID:  "F1",
		MotherID:  "M1",
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	snap, err := NewComposer(m, fam, WithLogger(logger)).Snapshot("C1", date)
	require.NoError(t, err)

	assert.Nil(t, snap.FatherIncome)
	require.NotNil(t, snap.MotherIncome)
	assert.Equal(t, 42.0, *snap.MotherIncome)
	assert.Contains(t, buf.String(), "parent covariates unavailable")
	assert.Contains(t, buf.String(), "role=father")
}

func TestSnapshot_FamilyErrors(t *testing.T) {
	date := testutil.Date(2021, 1, 1)
	m := testutil.NewMockStore()
	m.On("Covariate", mock.Anything, mock.Anything, date).Return(nil, nil)

	_, err := NewComposer(m, nil).Snapshot("C1", date)
	assert.ErrorIs(t, err, ErrFamilyNotLoaded)
	assert.ErrorIs(t, err, register.ErrMissingData)

	var empty *family.Index
	_, err = NewComposer(m, empty).Snapshot("C1", date)
	assert.ErrorIs(t, err, ErrFamilyNotLoaded)

	fam := familyIndex(t, testutil.Person{PNR: "other", BirthDate: testutil.Date(2000, 1, 1)})
	_, err = NewComposer(m, fam).Snapshot("C1", date)
	assert.ErrorIs(t, err, ErrNoFamilyRelation)
	assert.ErrorIs(t, err, register.ErrMissingData)
}

func TestDynamicComposer_FollowsReplacement(t *testing.T) {
	date := testutil.Date(2021, 1, 1)
	m := testutil.NewMockStore()
	m.On("Covariate", mock.Anything, mock.Anything, date).Return(nil, nil)

	var current FamilyLookup
	c := NewDynamicComposer(m, func() FamilyLookup { return current })

	_, err := c.Snapshot("C1", date)
	assert.ErrorIs(t, err, ErrFamilyNotLoaded)

	current = familyIndex(t, testutil.Person{PNR: "C1", BirthDate: testutil.Date(2000, 1, 1)})
	_, err = c.Snapshot("C1", date)
	assert.NoError(t, err)
}
