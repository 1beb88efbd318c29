package boundary

import (
	"fmt"
	"reflect"
)

// IDer is implemented by arguments that know which resource they address
type IDer interface {
	ResourceID() string
}

// ResourceID guesses the identifier of the resource a unit of work was called
// for. It is a best-effort heuristic used only for error messages, and it may
// pick the wrong value.
//
// In order it tries: an IDer; a struct field named ID or ItemID or tagged
// db:"id"; a map key "id" or "item_id"; the first element of a slice of
// positional arguments; the argument itself when it is a string or integer.
func ResourceID(args any) string {
	if args == nil {
		return ""
	}
	if ider, ok := args.(IDer); ok {
		return ider.ResourceID()
	}

	v := reflect.ValueOf(args)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
		if v.CanInterface() {
			if ider, ok := v.Interface().(IDer); ok {
				return ider.ResourceID()
			}
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		return structID(v)
	case reflect.Map:
		return mapID(v)
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return ""
		}
		return scalarID(v.Index(0))
	default:
		return scalarID(v)
	}
}

func structID(v reflect.Value) string {
	t := v.Type()

	for _, name := range []string{"ID", "ItemID"} {
		if f, ok := t.FieldByName(name); ok && f.IsExported() {
			fv, err := v.FieldByIndexErr(f.Index)
			if err != nil {
				return ""
			}
			return scalarID(fv)
		}
	}
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.IsExported() && f.Tag.Get("db") == "id" {
			return scalarID(v.Field(i))
		}
	}
	return ""
}

func mapID(v reflect.Value) string {
	keyType := v.Type().Key()
	if keyType.Kind() != reflect.String {
		return ""
	}

	for _, key := range []string{"id", "item_id"} {
		if value := v.MapIndex(reflect.ValueOf(key).Convert(keyType)); value.IsValid() {
			return scalarID(value)
		}
	}
	return ""
}

func scalarID(v reflect.Value) string {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	default:
		return ""
	}
}
