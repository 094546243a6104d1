package testutil

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/regcov/covariate"
	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of the covariate resolver contract.
type MockStore struct {
	mock.Mock
}

// NewMockStore returns an empty mock; register expectations with On.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Covariate implements the resolver contract.
func (m *MockStore) Covariate(pnr string, t covariate.Type, date time.Time) (*covariate.Covariate, error) {
	args := m.Called(pnr, t, date)
	var c *covariate.Covariate
	if v := args.Get(0); v != nil {
		c = v.(*covariate.Covariate)
	}
	return c, args.Error(1)
}

// FuncStore adapts a function to the resolver contract and counts calls.
// It is safe for concurrent use if Fn is.
type FuncStore struct {
	Fn    func(pnr string, t covariate.Type, date time.Time) (*covariate.Covariate, error)
	calls atomic.Int64
}

// Covariate implements the resolver contract.
func (s *FuncStore) Covariate(pnr string, t covariate.Type, date time.Time) (*covariate.Covariate, error) {
	s.calls.Add(1)
	if s.Fn == nil {
		return nil, nil
	}
	return s.Fn(pnr, t, date)
}

// Calls returns the number of Covariate invocations.
func (s *FuncStore) Calls() int64 {
	return s.calls.Load()
}
