package register

import (
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Scalar lists the Go types Value can extract.
type Scalar interface {
	int32 | int64 | float64 | string | bool
}

// Column returns the column named name. An exact match is preferred over a
// case-insensitive one.
func Column(rec arrow.Record, name string) (arrow.Array, bool) {
	idx := columnIndex(rec.Schema(), name)
	if idx < 0 {
		return nil, false
	}
	return rec.Column(idx), true
}

func columnIndex(schema *arrow.Schema, name string) int {
	if idx := schema.FieldIndices(name); len(idx) > 0 {
		return idx[0]
	}
	for i, f := range schema.Fields() {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Value extracts a typed, non-null value. ok is false for a missing column,
// an out-of-range row, a null slot or a column whose Arrow type does not
// match T.
func Value[T Scalar](rec arrow.Record, column string, row int) (T, bool) {
	var zero T

	arr, ok := Column(rec, column)
	if !ok || row < 0 || row >= arr.Len() || arr.IsNull(row) {
		return zero, false
	}

	var v any
	switch any(zero).(type) {
	case int32:
		if a, ok := arr.(*array.Int32); ok {
			v = a.Value(row)
		}
	case int64:
		if a, ok := arr.(*array.Int64); ok {
			v = a.Value(row)
		}
	case float64:
		if a, ok := arr.(*array.Float64); ok {
			v = a.Value(row)
		}
	case string:
		switch a := arr.(type) {
		case *array.String:
			v = a.Value(row)
		case *array.LargeString:
			v = a.Value(row)
		}
	case bool:
		if a, ok := arr.(*array.Boolean); ok {
			v = a.Value(row)
		}
	}

	if v == nil {
		return zero, false
	}
	return v.(T), true
}

// DateValue extracts a Date32 value. A missing column, null slot or other
// array type yields ok=false; an offset outside the accepted window yields
// an ErrInvalidFormat error.
func DateValue(rec arrow.Record, column string, row int) (time.Time, bool, error) {
	arr, ok := Column(rec, column)
	if !ok || row < 0 || row >= arr.Len() || arr.IsNull(row) {
		return time.Time{}, false, nil
	}
	a, ok := arr.(*array.Date32)
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := date32(a.Value(row))
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// StringColumn returns a Utf8 column. required controls whether absence is
// an error (ErrMissingData) or a nil array. A present column of another type
// is always an ErrInvalidFormat error.
func StringColumn(rec arrow.Record, name string, required bool) (*array.String, error) {
	arr, ok := Column(rec, name)
	if !ok {
		if required {
			return nil, missingColumn(name, arrow.BinaryTypes.String.String())
		}
		return nil, nil
	}
	a, ok := arr.(*array.String)
	if !ok {
		return nil, wrongColumnType(name, arrow.BinaryTypes.String.String(), arr.DataType().String())
	}
	return a, nil
}

// Date32Column is the Date32 counterpart of StringColumn.
func Date32Column(rec arrow.Record, name string, required bool) (*array.Date32, error) {
	arr, ok := Column(rec, name)
	if !ok {
		if required {
			return nil, missingColumn(name, arrow.FixedWidthTypes.Date32.String())
		}
		return nil, nil
	}
	a, ok := arr.(*array.Date32)
	if !ok {
		return nil, wrongColumnType(name, arrow.FixedWidthTypes.Date32.String(), arr.DataType().String())
	}
	return a, nil
}

// DateAt converts slot i of a Date32 array, reporting nulls as ok=false.
func DateAt(a *array.Date32, i int) (time.Time, bool, error) {
	if a == nil || a.IsNull(i) {
		return time.Time{}, false, nil
	}
	t, err := date32(a.Value(i))
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
