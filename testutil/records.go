package testutil

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Column describes one column of a test record. A nil entry in Values is
// appended as null.
type Column struct {
	Name   string
	Type   arrow.DataType
	Values []any
}

// Strings builds a Utf8 column from string or nil values.
func Strings(name string, values ...any) Column {
	return Column{Name: name, Type: arrow.BinaryTypes.String, Values: values}
}

// Int32s builds an Int32 column from int, int32 or nil values.
func Int32s(name string, values ...any) Column {
	return Column{Name: name, Type: arrow.PrimitiveTypes.Int32, Values: values}
}

// Int64s builds an Int64 column from int, int64 or nil values.
func Int64s(name string, values ...any) Column {
	return Column{Name: name, Type: arrow.PrimitiveTypes.Int64, Values: values}
}

// Float64s builds a Float64 column from float64, int or nil values.
func Float64s(name string, values ...any) Column {
	return Column{Name: name, Type: arrow.PrimitiveTypes.Float64, Values: values}
}

// Dates builds a Date32 column from time.Time, int32 day offsets or nil.
func Dates(name string, values ...any) Column {
	return Column{Name: name, Type: arrow.FixedWidthTypes.Date32, Values: values}
}

// NewRecord assembles columns of equal length into a record. It panics on
// malformed input; callers own the result and should Release it.
func NewRecord(cols ...Column) arrow.Record {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: c.Type, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	rows := -1
	for i, c := range cols {
		if rows >= 0 && len(c.Values) != rows {
			panic(fmt.Sprintf("testutil: column %q has %d values, want %d", c.Name, len(c.Values), rows))
		}
		rows = len(c.Values)
		for _, v := range c.Values {
			appendValue(b.Field(i), c.Name, v)
		}
	}
	return b.NewRecord()
}

func appendValue(fb array.Builder, name string, v any) {
	if v == nil {
		fb.AppendNull()
		return
	}
	switch b := fb.(type) {
	case *array.StringBuilder:
		b.Append(v.(string))
	case *array.Int32Builder:
		switch x := v.(type) {
		case int:
			b.Append(int32(x))
		case int32:
			b.Append(x)
		default:
			panic(fmt.Sprintf("testutil: column %q: unsupported int32 value %T", name, v))
		}
	case *array.Int64Builder:
		switch x := v.(type) {
		case int:
			b.Append(int64(x))
		case int64:
			b.Append(x)
		default:
			panic(fmt.Sprintf("testutil: column %q: unsupported int64 value %T", name, v))
		}
	case *array.Float64Builder:
		switch x := v.(type) {
		case float64:
			b.Append(x)
		case int:
			b.Append(float64(x))
		default:
			panic(fmt.Sprintf("testutil: column %q: unsupported float64 value %T", name, v))
		}
	case *array.Date32Builder:
		switch x := v.(type) {
		case time.Time:
			b.Append(arrow.Date32(DaysSinceEpoch(x)))
		case int32:
			b.Append(arrow.Date32(x))
		case int:
			b.Append(arrow.Date32(int32(x)))
		default:
			panic(fmt.Sprintf("testutil: column %q: unsupported date value %T", name, v))
		}
	default:
		panic(fmt.Sprintf("testutil: column %q: unsupported builder %T", name, fb))
	}
}

// DaysSinceEpoch returns the Date32 offset of t's calendar date.
func DaysSinceEpoch(t time.Time) int32 {
	y, m, d := t.Date()
	utc := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int32(utc.Unix() / 86400)
}

// Person is a convenience row for family relation records.
type Person struct {
	PNR             string
	BirthDate       time.Time
	FatherID        string
	FatherBirthDate time.Time
	MotherID        string
	MotherBirthDate time.Time
	FamilyID        string
}

// FamilyRecord builds a family relations record. Empty identifiers and zero
// dates become nulls.
func FamilyRecord(people ...Person) arrow.Record {
	var (
		pnr, father, mother, family     []any
		birth, fatherBirth, motherBirth []any
	)
	for _, p := range people {
		pnr = append(pnr, p.PNR)
		birth = append(birth, dateOrNil(p.BirthDate))
		father = append(father, stringOrNil(p.FatherID))
		fatherBirth = append(fatherBirth, dateOrNil(p.FatherBirthDate))
		mother = append(mother, stringOrNil(p.MotherID))
		motherBirth = append(motherBirth, dateOrNil(p.MotherBirthDate))
		family = append(family, stringOrNil(p.FamilyID))
	}
	return NewRecord(
		Strings("PNR", pnr...),
		Dates("BIRTH_DATE", birth...),
		Strings("FATHER_ID", father...),
		Dates("FATHER_BIRTH_DATE", fatherBirth...),
		Strings("MOTHER_ID", mother...),
		Dates("MOTHER_BIRTH_DATE", motherBirth...),
		Strings("FAMILY_ID", family...),
	)
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dateOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
