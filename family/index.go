package family

import (
	"fmt"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/hupe1980/regcov/register"
)

// Column names of a family relations extract.
const (
	ColPNR             = "PNR"
	ColBirthDate       = "BIRTH_DATE"
	ColFatherID        = "FATHER_ID"
	ColFatherBirthDate = "FATHER_BIRTH_DATE"
	ColMotherID        = "MOTHER_ID"
	ColMotherBirthDate = "MOTHER_BIRTH_DATE"
	ColFamilyID        = "FAMILY_ID"
)

// Index maps person identifiers to family relations.
//
// Lookups are safe for concurrent use. Load replaces the contents
// atomically with respect to readers.
type Index struct {
	mu        sync.RWMutex
	relations map[string]Relation
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{relations: make(map[string]Relation)}
}

// Load builds a new index from records.
func Load(records []arrow.Record) (*Index, error) {
	idx := NewIndex()
	if err := idx.Load(records); err != nil {
		return nil, err
	}
	return idx, nil
}

// Load merges records into the index. Rows are applied in order and later
// duplicates overwrite earlier ones. If any row is malformed nothing is
// applied.
func (x *Index) Load(records []arrow.Record) error {
	staged := make(map[string]Relation)
	for i, rec := range records {
		if err := stageRecord(staged, rec); err != nil {
			return fmt.Errorf("family relations record %d: %w", i, err)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.relations == nil {
		x.relations = make(map[string]Relation, len(staged))
	}
	for pnr, r := range staged {
		x.relations[pnr] = r
	}
	return nil
}

// Add inserts or replaces a single relation.
func (x *Index) Add(r Relation) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.relations == nil {
		x.relations = make(map[string]Relation)
	}
	x.relations[r.PNR] = r
}

type columns struct {
	pnr, fatherID, motherID, familyID *array.String
	birth, fatherBirth, motherBirth   *array.Date32
}

func resolveColumns(rec arrow.Record) (columns, error) {
	var (
		c   columns
		err error
	)
	if c.pnr, err = register.StringColumn(rec, ColPNR, true); err != nil {
		return c, err
	}
	if c.birth, err = register.Date32Column(rec, ColBirthDate, true); err != nil {
		return c, err
	}
	if c.fatherID, err = register.StringColumn(rec, ColFatherID, false); err != nil {
		return c, err
	}
	if c.fatherBirth, err = register.Date32Column(rec, ColFatherBirthDate, false); err != nil {
		return c, err
	}
	if c.motherID, err = register.StringColumn(rec, ColMotherID, false); err != nil {
		return c, err
	}
	if c.motherBirth, err = register.Date32Column(rec, ColMotherBirthDate, false); err != nil {
		return c, err
	}
	if c.familyID, err = register.StringColumn(rec, ColFamilyID, false); err != nil {
		return c, err
	}
	return c, nil
}

func stageRecord(staged map[string]Relation, rec arrow.Record) error {
	c, err := resolveColumns(rec)
	if err != nil {
		return err
	}

	for i := 0; i < int(rec.NumRows()); i++ {
		if c.pnr.IsNull(i) || c.pnr.Value(i) == "" {
			return fmt.Errorf("%w: row %d: empty %s", register.ErrInvalidFormat, i, ColPNR)
		}
		pnr := c.pnr.Value(i)

		birth, ok, err := register.DateAt(c.birth, i)
		if err != nil {
			return fmt.Errorf("row %d (%s): %s: %w", i, pnr, ColBirthDate, err)
		}
		if !ok {
			return fmt.Errorf("%w: row %d (%s): null %s", register.ErrInvalidFormat, i, pnr, ColBirthDate)
		}

		r := Relation{
			PNR:       pnr,
			BirthDate: birth,
			FatherID:  optString(c.fatherID, i),
			MotherID:  optString(c.motherID, i),
			FamilyID:  optString(c.familyID, i),
		}
		if r.FatherBirthDate, err = optDate(c.fatherBirth, i); err != nil {
			return fmt.Errorf("row %d (%s): %s: %w", i, pnr, ColFatherBirthDate, err)
		}
		if r.MotherBirthDate, err = optDate(c.motherBirth, i); err != nil {
			return fmt.Errorf("row %d (%s): %s: %w", i, pnr, ColMotherBirthDate, err)
		}

		staged[pnr] = r
	}
	return nil
}

func optString(a *array.String, i int) string {
	if a == nil || a.IsNull(i) {
		return ""
	}
	return a.Value(i)
}

func optDate(a *array.Date32, i int) (time.Time, error) {
	t, _, err := register.DateAt(a, i)
	return t, err
}

// Get returns the relation of pnr.
func (x *Index) Get(pnr string) (Relation, bool) {
	if x == nil {
		return Relation{}, false
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	r, ok := x.relations[pnr]
	return r, ok
}

// Parents returns the parent identifiers of pnr. ok is false if pnr is not
// in the index; known persons with unknown parents yield empty identifiers.
func (x *Index) Parents(pnr string) (Parents, bool) {
	r, ok := x.Get(pnr)
	if !ok {
		return Parents{}, false
	}
	return r.Parents(), true
}

// BirthDate returns the birth date of pnr.
func (x *Index) BirthDate(pnr string) (time.Time, bool) {
	r, ok := x.Get(pnr)
	if !ok {
		return time.Time{}, false
	}
	return r.BirthDate, true
}

// Len returns the number of persons in the index.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.relations)
}
