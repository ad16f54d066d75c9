package logpipe

import (
	"context"
	"fmt"
	"reflect"
)

// Maximum recursion depth for Dump.
const maxDumpDepth = 10

// Maximum slice or array elements Dump prints.
const maxDumpElements = 10

// Dump writes the contents of v at LevelDebug, one entry per line of output.
// Structs print their exported fields, maps and slices their elements, and
// everything else its %v form. Nothing is evaluated when debug is disabled.
func (l *Logger) Dump(ctx context.Context, v any) {
	if !l.IsEnabled(LevelDebug) {
		return
	}
	if v == nil {
		l.Log(ctx, LevelDebug, "Dump: <nil>", nil)
		return
	}

	d := &dumper{
		emit: func(format string, args ...any) {
			l.Log(ctx, LevelDebug, fmt.Sprintf(format, args...), nil)
		},
		visited: make(map[uintptr]bool),
	}
	d.value(v, emptyString, 0)
}

type dumper struct {
	emit    func(format string, args ...any)
	visited map[uintptr]bool
}

func (d *dumper) value(v any, prefix string, depth int) {
	if depth > maxDumpDepth {
		d.emit("%s: <max depth reached>", prefix)
		return
	}
	if v == nil {
		d.emit("%s: <nil>", prefix)
		return
	}

	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Interface || val.Kind() == reflect.Ptr {
		if val.IsNil() {
			d.emit("%s: <nil>", prefix)
			return
		}
		if val.Kind() == reflect.Ptr {
			ptr := val.Pointer()
			if d.visited[ptr] {
				d.emit("%s: <circular reference>", prefix)
				return
			}
			d.visited[ptr] = true
		}
		val = val.Elem()
	}
	typ := val.Type()

	switch val.Kind() {
	case reflect.Struct:
		if prefix == emptyString {
			d.emit("Struct: %s", typ.Name())
		} else {
			d.emit("%s: %s {", prefix, typ.Name())
		}
		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			fv := val.Field(i)
			if !fv.CanInterface() {
				continue
			}
			name := field.Name
			if prefix != emptyString {
				name = prefix + "." + field.Name
			}
			d.value(fv.Interface(), name, depth+1)
		}
		if prefix != emptyString {
			d.emit("%s: }", prefix)
		}

	case reflect.Map:
		d.emit("%s: map[%s]%s (len: %d) {", prefix, typ.Key(), typ.Elem(), val.Len())
		iter := val.MapRange()
		for iter.Next() {
			d.value(iter.Value().Interface(), fmt.Sprintf("%s[%v]", prefix, iter.Key().Interface()), depth+1)
		}
		d.emit("%s: }", prefix)

	case reflect.Slice, reflect.Array:
		d.emit("%s: %s (len: %d) {", prefix, typ, val.Len())
		for i := 0; i < val.Len() && i < maxDumpElements; i++ {
			d.value(val.Index(i).Interface(), fmt.Sprintf("%s[%d]", prefix, i), depth+1)
		}
		if val.Len() > maxDumpElements {
			d.emit("%s: ... (%d more elements)", prefix, val.Len()-maxDumpElements)
		}
		d.emit("%s: }", prefix)

	default:
		if val.CanInterface() {
			d.emit("%s: %v", prefix, val.Interface())
		} else {
			d.emit("%s: %v", prefix, v)
		}
	}
}
