package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/regcov/covariate"
	"github.com/hupe1980/regcov/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewKeyNormalizesDate(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	a := NewKey("p1", covariate.Income, time.Date(2020, 5, 1, 13, 30, 0, 0, cet))
	b := NewKey("p1", covariate.Income, testutil.Date(2020, 5, 1))

	assert.Equal(t, a, b)
	assert.Equal(t, "p1/income/2020-05-01", a.String())
}

func TestGetOrLoad_NegativeCaching(t *testing.T) {
	date := testutil.Date(2020, 1, 1)
	st := testutil.NewMockStore()
	st.On("Covariate", "missing", covariate.Income, date).Return(nil, nil).Once()

	c := New()
	key := NewKey("missing", covariate.Income, date)

	v, err := c.GetOrLoad(st, key)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = c.GetOrLoad(st, key)
	require.NoError(t, err)
	assert.Nil(t, v)

	st.AssertNumberOfCalls(t, "Covariate", 1)
	assert.True(t, c.Contains(key))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Loads)
}

func TestGetOrLoad_ReturnsClones(t *testing.T) {
	date := testutil.Date(2020, 1, 1)
	st := testutil.NewMockStore()
	st.On("Covariate", "p1", covariate.Income, date).Return(covariate.NewIncome(1000, "ind"), nil).Once()

	c := New()
	key := NewKey("p1", covariate.Income, date)

	first, err := c.GetOrLoad(st, key)
	require.NoError(t, err)
	require.NotNil(t, first)
	first.Income.Amount = 1

	second, err := c.GetOrLoad(st, key)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, second.Income.Amount)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 1000.0, got.Income.Amount)
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	date := testutil.Date(2020, 1, 1)
	boom := errors.New("boom")

	st := testutil.NewMockStore()
	st.On("Covariate", "p1", covariate.Occupation, date).Return(nil, boom).Once()
	st.On("Covariate", "p1", covariate.Occupation, date).Return(covariate.NewOccupation("110", "SOCIO13"), nil).Once()

	c := New()
	key := NewKey("p1", covariate.Occupation, date)

	_, err := c.GetOrLoad(st, key)
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.Contains(key))

	v, err := c.GetOrLoad(st, key)
	require.NoError(t, err)
	assert.Equal(t, "110", v.Occupation.Code)
	assert.Equal(t, int64(1), c.Stats().LoadErrors)
}

func TestInsertAndGet(t *testing.T) {
	c := New(WithNumShards(2))
	key := NewKey("p1", covariate.Education, testutil.Date(2020, 1, 1))

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Insert(key, nil)
	v, ok := c.Get(key)
	assert.True(t, ok)
	assert.Nil(t, v)

	c.Insert(key, covariate.NewEducation("10", time.Time{}))
	v, ok = c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "10", v.Education.Level)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestBulkLoad_SkipsCachedKeys(t *testing.T) {
	pnrs := []string{"p1", "p2", "p3"}
	types := []covariate.Type{covariate.Income, covariate.Education}
	dates := []time.Time{testutil.Date(2020, 1, 1), testutil.Date(2021, 1, 1)}

	st := &testutil.FuncStore{
		Fn: func(pnr string, typ covariate.Type, date time.Time) (*covariate.Covariate, error) {
			if pnr == "p3" {
				return nil, nil
			}
			return covariate.NewIncome(float64(date.Year()), "ind"), nil
		},
	}

	c := New(WithNumShards(4))

	// Pre-cache all keys for p1.
	for _, typ := range types {
		for _, d := range dates {
			c.Insert(NewKey("p1", typ, d), nil)
		}
	}
	require.Equal(t, 4, c.Len())

	n, err := c.BulkLoad(context.Background(), st, pnrs, types, dates)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, int64(8), st.Calls())
	assert.Equal(t, 12, c.Len())

	// A second run has nothing to do.
	n, err = c.BulkLoad(context.Background(), st, pnrs, types, dates)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(8), st.Calls())
}

func TestBulkLoad_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	st := &testutil.FuncStore{
		Fn: func(pnr string, _ covariate.Type, _ time.Time) (*covariate.Covariate, error) {
			if pnr == "bad" {
				return nil, boom
			}
			return nil, nil
		},
	}

	c := New()
	n, err := c.BulkLoad(context.Background(), st,
		[]string{"ok", "bad", "later"},
		[]covariate.Type{covariate.Income},
		[]time.Time{testutil.Date(2020, 1, 1)},
	)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(2), st.Calls())
	assert.True(t, c.Contains(NewKey("ok", covariate.Income, testutil.Date(2020, 1, 1))))
	assert.False(t, c.Contains(NewKey("later", covariate.Income, testutil.Date(2020, 1, 1))))
}

func TestBulkLoad_Canceled(t *testing.T) {
	st := &testutil.FuncStore{}
	c := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := c.BulkLoad(ctx, st, []string{"p1"}, []covariate.Type{covariate.Income}, []time.Time{testutil.Date(2020, 1, 1)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Zero(t, st.Calls())
}

func TestBulkLoad_Concurrent(t *testing.T) {
	st := &testutil.FuncStore{}
	c := New()

	pnrs := testutil.NewRNG(1).UniquePNRs(50)
	types := covariate.Types()
	dates := []time.Time{testutil.Date(2020, 1, 1)}

	var wg sync.WaitGroup
	totals := make([]int, 4)
	for i := range totals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.BulkLoad(context.Background(), st, pnrs, types, dates)
			assert.NoError(t, err)
			totals[i] = n
		}()
	}
	wg.Wait()

	sum := 0
	for _, n := range totals {
		sum += n
	}
	assert.Equal(t, 50*len(types), sum)
	assert.Equal(t, int64(50*len(types)), st.Calls())
}

type recordingObserver struct {
	mock.Mock
}

func (o *recordingObserver) OnHit()                            { o.Called() }
func (o *recordingObserver) OnMiss()                           { o.Called() }
func (o *recordingObserver) OnLoad(_ time.Duration, err error) { o.Called(err) }
func (o *recordingObserver) OnBulkLoad(requested, loaded int, _ time.Duration, err error) {
	o.Called(requested, loaded, err)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	obs.On("OnMiss").Return().Once()
	obs.On("OnHit").Return().Once()
	obs.On("OnLoad", nil).Return()
	obs.On("OnBulkLoad", 2, 1, nil).Return().Once()

	st := &testutil.FuncStore{}
	c := New(WithObserver(obs))
	date := testutil.Date(2020, 1, 1)

	_, err := c.GetOrLoad(st, NewKey("p1", covariate.Income, date))
	require.NoError(t, err)
	_, err = c.GetOrLoad(st, NewKey("p1", covariate.Income, date))
	require.NoError(t, err)

	_, err = c.BulkLoad(context.Background(), st, []string{"p1", "p2"}, []covariate.Type{covariate.Income}, []time.Time{date})
	require.NoError(t, err)

	obs.AssertExpectations(t)
	obs.AssertNumberOfCalls(t, "OnLoad", 2)
}

func TestBind(t *testing.T) {
	date := testutil.Date(2020, 1, 1)
	st := testutil.NewMockStore()
	st.On("Covariate", "p1", covariate.Income, date).Return(covariate.NewIncome(5, "ind"), nil).Once()

	c := New()
	r := c.Bind(st)

	for range 3 {
		v, err := r.Covariate("p1", covariate.Income, date)
		require.NoError(t, err)
		assert.Equal(t, 5.0, v.Income.Amount)
	}
	st.AssertExpectations(t)
}

func TestGetOrLoad_SlowLoadDoesNotBlockShard(t *testing.T) {
	date := testutil.Date(2020, 1, 1)
	started := make(chan struct{})
	release := make(chan struct{})

	st := &testutil.FuncStore{
		Fn: func(pnr string, _ covariate.Type, _ time.Time) (*covariate.Covariate, error) {
			if pnr == "slow" {
				close(started)
				<-release
			}
			return covariate.NewIncome(1, "ind"), nil
		},
	}

	// One shard puts every key on the same lock.
	c := New(WithNumShards(1))
	cachedKey := NewKey("cached", covariate.Income, date)
	c.Insert(cachedKey, covariate.NewIncome(7, "ind"))

	slowDone := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(st, NewKey("slow", covariate.Income, date))
		slowDone <- err
	}()
	<-started

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, ok := c.Get(cachedKey)
		assert.True(t, ok)
		assert.Equal(t, 7.0, v.Income.Amount)

		v, err := c.GetOrLoad(st, NewKey("other", covariate.Income, date))
		assert.NoError(t, err)
		assert.Equal(t, 1.0, v.Income.Amount)

		c.Insert(NewKey("third", covariate.Income, date), nil)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("operations on other keys waited for an in-flight load")
	}

	close(release)
	require.NoError(t, <-slowDone)
	assert.True(t, c.Contains(NewKey("slow", covariate.Income, date)))
}

func TestGetOrLoad_ConcurrentMissesShareOneLoad(t *testing.T) {
	date := testutil.Date(2020, 1, 1)
	release := make(chan struct{})
	st := &testutil.FuncStore{
		Fn: func(string, covariate.Type, time.Time) (*covariate.Covariate, error) {
			<-release
			return covariate.NewEducation("20", time.Time{}), nil
		},
	}

	c := New()
	key := NewKey("p1", covariate.Education, date)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(st, key)
			assert.NoError(t, err)
			assert.Equal(t, "20", v.Education.Level)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), st.Calls())
	assert.Equal(t, int64(1), c.Stats().Loads)
}

func TestBind_SameCacheTwice(t *testing.T) {
	date := testutil.Date(2020, 1, 1)
	st := &testutil.FuncStore{
		Fn: func(string, covariate.Type, time.Time) (*covariate.Covariate, error) {
			return covariate.NewIncome(3, "ind"), nil
		},
	}

	c := New(WithNumShards(1))
	inner := c.Bind(st)
	outer := c.Bind(inner)
	assert.Same(t, inner, outer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := outer.Covariate("p1", covariate.Income, date)
		assert.NoError(t, err)
		assert.Equal(t, 3.0, v.Income.Amount)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested bind did not return")
	}
	assert.Equal(t, int64(1), st.Calls())
}
