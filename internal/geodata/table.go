package geodata

import (
	"time"

	"github.com/twpayne/go-geom"
)

// CRSWGS84 tags tables whose geometries are in EPSG:4326 degrees. Every
// table fetched from the store carries this; the tag exists so downstream
// code can assert it rather than assume it.
const CRSWGS84 = "EPSG:4326"

// Feature is one row of a feature table: arbitrary attribute columns plus
// exactly one geometry. Geom is never nil after construction.
type Feature struct {
	Attrs map[string]any
	Geom  geom.T
}

// FeatureTable is an immutable table of features sharing a coordinate
// reference system. Rows are never mutated after construction.
type FeatureTable struct {
	CRS      string
	Features []Feature
}

// Len returns the number of rows.
func (t *FeatureTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Features)
}

// attrString coerces an attribute value to string.
func attrString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// attrInt coerces a numeric attribute to int. The store returns integer
// counts through various driver types depending on the column definition.
func attrInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// attrTime coerces an attribute to time.Time.
func attrTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// AttrString returns the named attribute of f as a string.
func (f Feature) AttrString(col string) (string, bool) {
	v, ok := f.Attrs[col]
	if !ok || v == nil {
		return "", false
	}
	return attrString(v)
}

// AttrInt returns the named attribute of f as an int. Absent or null
// attributes return ok=false; callers must distinguish that from zero.
func (f Feature) AttrInt(col string) (int, bool) {
	v, ok := f.Attrs[col]
	if !ok || v == nil {
		return 0, false
	}
	return attrInt(v)
}

// AttrTime returns the named attribute of f as a time.Time.
func (f Feature) AttrTime(col string) (time.Time, bool) {
	v, ok := f.Attrs[col]
	if !ok || v == nil {
		return time.Time{}, false
	}
	return attrTime(v)
}
