package postgres

import (
	"reflect"
	"sync"
)

// dbField is a "db"-tagged field reachable from a struct type, embedded
// structs included.
type dbField struct {
	column string
	index  []int
}

// fieldCache maps reflect.Type to []dbField.
var fieldCache sync.Map

// dbFields returns the tagged fields of t in declaration order, with the
// fields of an embedded struct (entity.BaseEntity) in place of the struct.
// Computed once per type.
func dbFields(t reflect.Type) []dbField {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]dbField)
	}

	var fields []dbField
	if t.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(t) {
			if f.Anonymous || !f.IsExported() {
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			fields = append(fields, dbField{column: tag, index: f.Index})
		}
	}

	fieldCache.Store(t, fields)
	return fields
}

func structValue(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	return rv, rv.Kind() == reflect.Struct
}

// ExtractDBColumns lists the columns of T from its "db" tags. Repositories
// call it once at package init to build their select lists.
//
//	columns := ExtractDBColumns[inventory.Receipt]()
//	// ["id", "created_at", "updated_at", "directive", "status"]
func ExtractDBColumns[T any]() []string {
	fields := dbFields(reflect.TypeOf((*T)(nil)).Elem())
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

// StructToMap converts a struct to a column -> value map for inserts.
// It returns nil for non-struct values.
func StructToMap(v any) map[string]any {
	rv, ok := structValue(v)
	if !ok {
		return nil
	}
	fields := dbFields(rv.Type())
	res := make(map[string]any, len(fields))
	for _, f := range fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// RowValues returns the values of v's "db" fields in columns order, for
// use as one COPY row. Columns missing from v are nil.
func RowValues(v any, columns []string) []any {
	row := make([]any, len(columns))
	rv, ok := structValue(v)
	if !ok {
		return row
	}

	byColumn := make(map[string][]int, len(columns))
	for _, f := range dbFields(rv.Type()) {
		byColumn[f.column] = f.index
	}
	for i, col := range columns {
		if index, ok := byColumn[col]; ok {
			row[i] = rv.FieldByIndex(index).Interface()
		}
	}
	return row
}
