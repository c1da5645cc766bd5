package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"
)

// firstString returns the first non-empty string found under the given
// paths. A path is a dotted key such as "music.title".
func firstString(v *fastjson.Value, paths ...string) string {
	for _, p := range paths {
		if s := str(lookup(v, p)); s != "" {
			return s
		}
	}
	return ""
}

// firstInt returns the first positive integer found under the given paths.
// Numeric strings are accepted.
func firstInt(v *fastjson.Value, paths ...string) int64 {
	for _, p := range paths {
		if n := integer(lookup(v, p)); n > 0 {
			return n
		}
	}
	return 0
}

func firstTime(v *fastjson.Value, paths ...string) time.Time {
	for _, p := range paths {
		if t := timestamp(lookup(v, p)); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

func lookup(v *fastjson.Value, path string) *fastjson.Value {
	if v == nil {
		return nil
	}
	return v.Get(strings.Split(path, ".")...)
}

func str(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return strings.TrimSpace(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		return strings.TrimSpace(v.String())
	}
	return ""
}

func integer(v *fastjson.Value) int64 {
	if v == nil {
		return 0
	}
	switch v.Type() {
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case fastjson.TypeString:
		if n, err := strconv.ParseInt(strings.TrimSpace(string(v.GetStringBytes())), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func number(v *fastjson.Value) float64 {
	if v == nil {
		return 0
	}
	switch v.Type() {
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeString:
		if f, err := strconv.ParseFloat(strings.TrimSpace(string(v.GetStringBytes())), 64); err == nil {
			return f
		}
	}
	return 0
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// timestamp accepts RFC 3339 and common ISO variants, or epoch milliseconds.
func timestamp(v *fastjson.Value) time.Time {
	if v == nil {
		return time.Time{}
	}
	switch v.Type() {
	case fastjson.TypeNumber:
		if ms := v.GetInt64(); ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
	case fastjson.TypeString:
		s := strings.TrimSpace(string(v.GetStringBytes()))
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// records unwraps the list of objects in a payload. It accepts a bare array,
// an object wrapping the array under one of keys, or a single object.
func records(v *fastjson.Value, keys ...string) []*fastjson.Value {
	if v == nil {
		return nil
	}
	switch v.Type() {
	case fastjson.TypeArray:
		return v.GetArray()
	case fastjson.TypeObject:
		for _, k := range append(keys, "data", "items", "content") {
			if inner := v.Get(k); inner != nil && inner.Type() == fastjson.TypeArray {
				return inner.GetArray()
			}
		}
		return []*fastjson.Value{v}
	}
	return nil
}
