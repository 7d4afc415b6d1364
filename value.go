// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack // import "github.com/ssbc/mpack"

import "reflect"

// Kind is the closed set of shapes the codec knows how to put on the
// wire. Native values are classified into a Kind before any format
// decision is made.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
	KindExt
	KindUnsupported
)

var kindNames = [...]string{
	KindNil:         "nil",
	KindBool:        "bool",
	KindInt:         "int",
	KindUint:        "uint",
	KindFloat:       "float",
	KindString:      "string",
	KindBytes:       "bytes",
	KindArray:       "array",
	KindMap:         "map",
	KindExt:         "ext",
	KindUnsupported: "unsupported",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// kindOf classifies a native value. Concrete types are matched first;
// everything else falls back to reflection, where slices and arrays
// become KindArray and maps and structs become KindMap (a struct is
// encoded as a map of its exported fields).
func kindOf(v interface{}) Kind {
	switch v.(type) {
	case nil:
		return KindNil
	case bool:
		return KindBool
	case int, int8, int16, int32, int64:
		return KindInt
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return KindUint
	case float32, float64:
		return KindFloat
	case string:
		return KindString
	case []byte:
		return KindBytes
	case []interface{}:
		return KindArray
	case map[string]interface{}, map[interface{}]interface{}:
		return KindMap
	case Ext, *Ext:
		return KindExt
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return KindNil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.Map, reflect.Struct:
		return KindMap
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindUint
	case reflect.Float32, reflect.Float64:
		return KindFloat
	}
	return KindUnsupported
}
