package backend

import (
	"strings"

	"github.com/veld-lang/veld/internal/typesystem"
)

// valType maps a checked type to its wasm value type. Unit lowers to no
// value at all, reported by the second return.
func valType(t typesystem.Type) (string, bool) {
	switch tt := typesystem.Erase(t).(type) {
	case typesystem.TCon:
		switch tt {
		case typesystem.IntType:
			return "i64", true
		case typesystem.FloatType:
			return "f64", true
		case typesystem.BoolType:
			return "i32", true
		case typesystem.StringType:
			return "i32", true
		case typesystem.UnitType:
			return "", false
		}
	case typesystem.TRecord, typesystem.TEnum, typesystem.TApp:
		return "i32", true
	}
	return "", false
}

// isPointer reports whether values of t live in the arena.
func isPointer(t typesystem.Type) bool {
	switch tt := typesystem.Erase(t).(type) {
	case typesystem.TCon:
		return tt == typesystem.StringType
	case typesystem.TRecord, typesystem.TEnum, typesystem.TApp:
		return true
	}
	return false
}

func slotSize(vt string) int {
	if vt == "i32" {
		return 4
	}
	return 8
}

func loadOp(vt string) string  { return vt + ".load" }
func storeOp(vt string) string { return vt + ".store" }

// recordLayout is the flat in-memory shape of a record: field offsets in
// declaration order plus the rounded allocation size.
type recordLayout struct {
	offsets map[string]int
	types   map[string]typesystem.Type
	size    int
}

func layoutOf(rec typesystem.TRecord) recordLayout {
	l := recordLayout{
		offsets: make(map[string]int, len(rec.Fields)),
		types:   make(map[string]typesystem.Type, len(rec.Fields)),
	}
	off := 0
	for _, f := range rec.Fields {
		vt, ok := valType(f.Type)
		if !ok {
			vt = "i32" // Unit field, degenerate but addressable
		}
		sz := slotSize(vt)
		off = align(off, sz)
		l.offsets[f.Name] = off
		l.types[f.Name] = f.Type
		off += sz
	}
	l.size = align(off, 8)
	if l.size == 0 {
		l.size = 8
	}
	return l
}

func align(n, to int) int {
	return (n + to - 1) &^ (to - 1)
}

// Enums, Option and Result share one boxed representation: a 4-byte tag
// padded to 8, followed by 8-byte payload slots sized for the widest
// variant. Uniform sizing keeps pattern tests free of bounds hazards.
const enumTagSize = 8

func enumBoxSize(maxPayload int) int {
	return enumTagSize + 8*maxPayload
}

func payloadOffset(i int) int {
	return enumTagSize + 8*i
}

// enumShape resolves tag numbering and payload width for a scrutinee or
// constructed value.
type enumShape struct {
	tags       map[string]int
	payloads   map[string][]typesystem.Type
	maxPayload int
}

func shapeOfOption(elem typesystem.Type) enumShape {
	return enumShape{
		tags:       map[string]int{"None": 0, "Some": 1},
		payloads:   map[string][]typesystem.Type{"None": nil, "Some": {elem}},
		maxPayload: 1,
	}
}

func shapeOfResult(ok, err typesystem.Type) enumShape {
	return enumShape{
		tags:       map[string]int{"Ok": 0, "Err": 1},
		payloads:   map[string][]typesystem.Type{"Ok": {ok}, "Err": {err}},
		maxPayload: 1,
	}
}

func shapeOfEnum(enum typesystem.TEnum) enumShape {
	s := enumShape{
		tags:     make(map[string]int, len(enum.Variants)),
		payloads: make(map[string][]typesystem.Type, len(enum.Variants)),
	}
	for i, v := range enum.Variants {
		s.tags[v.Name] = i
		s.payloads[v.Name] = v.Payload
		if len(v.Payload) > s.maxPayload {
			s.maxPayload = len(v.Payload)
		}
	}
	return s
}

// shapeFor returns the boxed shape for any sum-typed value.
func shapeFor(t typesystem.Type) (enumShape, bool) {
	switch tt := typesystem.Erase(t).(type) {
	case typesystem.TApp:
		switch tt.Name {
		case "Option":
			return shapeOfOption(tt.Args[0]), true
		case "Result":
			return shapeOfResult(tt.Args[0], tt.Args[1]), true
		}
	case typesystem.TEnum:
		return shapeOfEnum(tt), true
	}
	return enumShape{}, false
}

// List cells are [8-byte head][4-byte tail] rounded to 16; nil is the null
// pointer.
const (
	listHeadOffset = 0
	listTailOffset = 8
	listCellSize   = 16
)

// monoKey renders a type for use inside a wasm identifier. Commas and
// spaces are not idchars, everything else in a rendered type is.
func monoKey(types []typesystem.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = strings.ReplaceAll(typesystem.Erase(t).String(), ", ", ".")
		parts[i] = strings.ReplaceAll(parts[i], " ", "")
	}
	return strings.Join(parts, ".")
}
