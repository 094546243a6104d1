package register

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// IDColumn is the canonical person identifier column.
	IDColumn = "PNR"
	// FallbackIDColumn is tried when no PNR column matches.
	FallbackIDColumn = "CPR"

	// DefaultRowMemoSize is the default number of memoized FindRow results.
	DefaultRowMemoSize = 4096
)

// Partition wraps the records of one register and period key. It is
// immutable after construction and safe for concurrent readers.
type Partition struct {
	name      Name
	periodKey string
	records   []arrow.Record
	schema    *arrow.Schema

	// idColumns lists identifier column indices in lookup-pass order.
	idColumns []int

	memo *lru.Cache[string, rowLocation]
}

type rowLocation struct {
	record int // -1 for a memoized miss
	row    int
}

// PartitionOption configures a Partition.
type PartitionOption func(*partitionOptions)

type partitionOptions struct {
	memoSize int
}

// WithRowMemoSize sets the FindRow memo size. Zero disables memoization.
func WithRowMemoSize(n int) PartitionOption {
	return func(o *partitionOptions) {
		o.memoSize = n
	}
}

// NewPartition validates periodKey against the register's granularity,
// checks that all records share one schema and retains them. The caller
// keeps its own references and may release them independently.
func NewPartition(name Name, periodKey string, records []arrow.Record, optFns ...PartitionOption) (*Partition, error) {
	opts := partitionOptions{memoSize: DefaultRowMemoSize}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := ValidatePeriodKey(name, periodKey); err != nil {
		return nil, err
	}

	var schema *arrow.Schema
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("%w: %s/%s: record %d is nil", ErrInvalidFormat, name, periodKey, i)
		}
		if schema == nil {
			schema = rec.Schema()
			continue
		}
		if !schema.Equal(rec.Schema()) {
			return nil, fmt.Errorf("%w: %s/%s: record %d schema differs from record 0", ErrInvalidFormat, name, periodKey, i)
		}
	}

	p := &Partition{
		name:      name,
		periodKey: periodKey,
		records:   make([]arrow.Record, len(records)),
		schema:    schema,
	}
	copy(p.records, records)
	for _, rec := range p.records {
		rec.Retain()
	}

	if schema != nil {
		p.idColumns = identifierColumns(schema)
	}

	if opts.memoSize > 0 {
		memo, err := lru.New[string, rowLocation](opts.memoSize)
		if err != nil {
			return nil, err
		}
		p.memo = memo
	}

	return p, nil
}

// identifierColumns orders candidate columns: PNR exact, PNR any case,
// CPR exact, CPR any case.
func identifierColumns(schema *arrow.Schema) []int {
	var cols []int
	seen := make(map[int]bool)
	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			cols = append(cols, i)
		}
	}

	for _, name := range []string{IDColumn, FallbackIDColumn} {
		for _, i := range schema.FieldIndices(name) {
			add(i)
		}
		for i, f := range schema.Fields() {
			if f.Name != name && strings.EqualFold(f.Name, name) {
				add(i)
			}
		}
	}
	return cols
}

// Name returns the register name.
func (p *Partition) Name() Name { return p.name }

// PeriodKey returns the period key.
func (p *Partition) PeriodKey() string { return p.periodKey }

// Schema returns the shared schema, or nil for an empty partition.
func (p *Partition) Schema() *arrow.Schema { return p.schema }

// NumRecords returns the number of records.
func (p *Partition) NumRecords() int { return len(p.records) }

// NumRows returns the total row count across records.
func (p *Partition) NumRows() int64 {
	var n int64
	for _, rec := range p.records {
		n += rec.NumRows()
	}
	return n
}

// FindRow locates the row of pnr. The lookup is deterministic for an
// unchanged partition.
//
// Identifier columns are tried in order (PNR exact, PNR any case, CPR
// exact, CPR any case), and each column is searched across all records
// before the next column is tried. A PNR match in a later record therefore
// wins over a CPR match in an earlier one. Within a column the first
// record and row win.
func (p *Partition) FindRow(pnr string) (RowRef, bool) {
	if p.memo != nil {
		if loc, ok := p.memo.Get(pnr); ok {
			return p.ref(loc)
		}
	}

	loc := p.scan(pnr)
	if p.memo != nil {
		p.memo.Add(pnr, loc)
	}
	return p.ref(loc)
}

func (p *Partition) ref(loc rowLocation) (RowRef, bool) {
	if loc.record < 0 {
		return RowRef{}, false
	}
	return RowRef{rec: p.records[loc.record], Record: loc.record, Row: loc.row}, true
}

func (p *Partition) scan(pnr string) rowLocation {
	for _, col := range p.idColumns {
		for ri, rec := range p.records {
			if row := findInColumn(rec.Column(col), pnr); row >= 0 {
				return rowLocation{record: ri, row: row}
			}
		}
	}
	return rowLocation{record: -1}
}

func findInColumn(arr arrow.Array, pnr string) int {
	switch a := arr.(type) {
	case *array.String:
		for i := 0; i < a.Len(); i++ {
			if a.IsValid(i) && a.Value(i) == pnr {
				return i
			}
		}
	case *array.LargeString:
		for i := 0; i < a.Len(); i++ {
			if a.IsValid(i) && a.Value(i) == pnr {
				return i
			}
		}
	}
	return -1
}

// ApproxBytes estimates the buffer memory retained by the partition.
func (p *Partition) ApproxBytes() int64 {
	var n int64
	for _, rec := range p.records {
		for _, col := range rec.Columns() {
			n += arrayBytes(col.Data())
		}
	}
	return n
}

func arrayBytes(d arrow.ArrayData) int64 {
	var n int64
	for _, buf := range d.Buffers() {
		if buf != nil {
			n += int64(buf.Len())
		}
	}
	for _, child := range d.Children() {
		n += arrayBytes(child)
	}
	return n
}

// Release drops the partition's references to its records.
func (p *Partition) Release() {
	for _, rec := range p.records {
		rec.Release()
	}
	p.records = nil
	if p.memo != nil {
		p.memo.Purge()
	}
}

// RowRef points at one row of a partition record.
type RowRef struct {
	rec    arrow.Record
	Record int
	Row    int
}

// Int32 reads an Int32 column.
func (r RowRef) Int32(column string) (int32, bool) { return Value[int32](r.rec, column, r.Row) }

// Int64 reads an Int64 column.
func (r RowRef) Int64(column string) (int64, bool) { return Value[int64](r.rec, column, r.Row) }

// Float64 reads a Float64 column.
func (r RowRef) Float64(column string) (float64, bool) { return Value[float64](r.rec, column, r.Row) }

// String reads a Utf8 column.
func (r RowRef) String(column string) (string, bool) { return Value[string](r.rec, column, r.Row) }

// Date reads a Date32 column.
func (r RowRef) Date(column string) (time.Time, bool, error) {
	return DateValue(r.rec, column, r.Row)
}

// FirstInt32 returns the first non-null Int32 among columns.
func (r RowRef) FirstInt32(columns ...string) (int32, bool) {
	for _, c := range columns {
		if v, ok := r.Int32(c); ok {
			return v, true
		}
	}
	return 0, false
}

// FirstFloat64 returns the first non-null Float64 among columns.
func (r RowRef) FirstFloat64(columns ...string) (float64, bool) {
	for _, c := range columns {
		if v, ok := r.Float64(c); ok {
			return v, true
		}
	}
	return 0, false
}

// Code reads a categorical column stored either as Utf8 or as Int32.
func (r RowRef) Code(column string) (string, bool) {
	if s, ok := r.String(column); ok {
		return s, true
	}
	if v, ok := r.Int32(column); ok {
		return strconv.FormatInt(int64(v), 10), true
	}
	return "", false
}
