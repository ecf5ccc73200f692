// Package timenorm normalizes time-like values to model.Epoch.
package timenorm

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/okian/sailwind/internal/domain/model"
)

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// maxDepth bounds how many record layers are followed to a timestamp.
const maxDepth = 4

// Timestamp-carrying keys and fields, in lookup order.
var (
	recordKeys   = []string{"timestamp", "time"}
	recordFields = []string{"Timestamp", "Time"}
)

// Normalize converts v to seconds since the Unix epoch. Accepted inputs are
// time.Time, time.Duration (its own length in seconds), integer and float
// epochs, json.Number, numeric or ISO-8601 strings, values with a
// Timestamp() method, string-keyed maps carrying a "timestamp" or "time"
// key, and structs (or pointers to them) with a Timestamp or Time field.
// Anything else, including NaN, yields model.InfEpoch.
func Normalize(v any) model.Epoch {
	return normalize(v, 0)
}

func normalize(v any, depth int) model.Epoch {
	if depth > maxDepth {
		return model.InfEpoch
	}
	switch x := v.(type) {
	case nil:
		return model.InfEpoch
	case model.Epoch:
		return finite(float64(x))
	case time.Time:
		if x.IsZero() {
			return model.InfEpoch
		}
		return model.EpochOf(x)
	case *time.Time:
		if x == nil {
			return model.InfEpoch
		}
		return normalize(*x, depth+1)
	case time.Duration:
		return model.Epoch(x.Seconds())
	case int:
		return model.Epoch(x)
	case int8:
		return model.Epoch(x)
	case int16:
		return model.Epoch(x)
	case int32:
		return model.Epoch(x)
	case int64:
		return model.Epoch(x)
	case uint:
		return model.Epoch(x)
	case uint8:
		return model.Epoch(x)
	case uint16:
		return model.Epoch(x)
	case uint32:
		return model.Epoch(x)
	case uint64:
		return model.Epoch(x)
	case json.Number:
		return parseString(x.String())
	case float32:
		return finite(float64(x))
	case float64:
		return finite(x)
	case string:
		return parseString(x)
	case interface{ Timestamp() time.Time }:
		return normalize(x.Timestamp(), depth+1)
	case map[string]any:
		for _, k := range recordKeys {
			if ts, ok := x[k]; ok {
				return normalize(ts, depth+1)
			}
		}
		return model.InfEpoch
	}
	return record(reflect.ValueOf(v), depth)
}

// record handles named numeric types, arbitrary string-keyed maps and
// structs carrying a timestamp field.
func record(rv reflect.Value, depth int) model.Epoch {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return model.InfEpoch
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return model.Epoch(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return model.Epoch(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float())
	case reflect.String:
		return parseString(rv.String())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return model.InfEpoch
		}
		for _, k := range recordKeys {
			ts := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
			if ts.IsValid() && ts.CanInterface() {
				return normalize(ts.Interface(), depth+1)
			}
		}
	case reflect.Struct:
		for _, name := range recordFields {
			f := rv.FieldByName(name)
			if f.IsValid() && f.CanInterface() {
				return normalize(f.Interface(), depth+1)
			}
		}
	}
	return model.InfEpoch
}

// ParseTime parses a timestamp string in any supported layout or as numeric
// epoch seconds.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	e := parseString(s)
	if e.IsInf() {
		return time.Time{}, false
	}
	return e.Time(), true
}

func parseString(s string) model.Epoch {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.InfEpoch
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(f)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.EpochOf(t)
		}
	}
	return model.InfEpoch
}

func finite(f float64) model.Epoch {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return model.InfEpoch
	}
	return model.Epoch(f)
}
