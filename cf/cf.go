// Package cf loads flat configuration maps into structs. Fields are matched
// by their `cf` tag, falling back to the field name.
package cf

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/pkg/errors"
)

var durationType = reflect.TypeOf(time.Duration(0))

func Load(data map[string]interface{}, cf interface{}) error {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() == reflect.Ptr {
		cfV = cfV.Elem()
	}
	if cfV.Kind() != reflect.Struct {
		return errors.Errorf("cf type [%s] not struct", cfV.Type())
	}
	for i := 0; i < cfV.NumField(); i++ {
		field := cfV.Field(i)
		if !field.CanSet() {
			continue
		}
		key := keyName(cfV.Type().Field(i))
		v, found := data[key]
		if !found {
			continue
		}
		if err := set(field, v); err != nil {
			return errors.Wrapf(err, "field '%s'", key)
		}
	}
	return nil
}

func set(field reflect.Value, v interface{}) error {
	mismatch := func() error {
		return errors.Errorf("type mismatch, got [%s], expected [%s]", reflect.TypeOf(v), field.Type())
	}

	if field.Type() == durationType {
		switch tv := v.(type) {
		case string:
			d, err := time.ParseDuration(tv)
			if err != nil {
				return errors.Wrapf(err, "invalid duration '%s'", tv)
			}
			field.SetInt(int64(d))
			return nil
		default:
			ms, ok := toInt64(v)
			if !ok {
				return mismatch()
			}
			field.SetInt(int64(time.Duration(ms) * time.Millisecond))
			return nil
		}
	}

	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := toInt64(v)
		if !ok {
			return mismatch()
		}
		if field.OverflowInt(i) {
			return errors.Errorf("value [%d] overflows [%s]", i, field.Type())
		}
		field.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := toInt64(v)
		if !ok || i < 0 {
			return mismatch()
		}
		if field.OverflowUint(uint64(i)) {
			return errors.Errorf("value [%d] overflows [%s]", i, field.Type())
		}
		field.SetUint(uint64(i))

	case reflect.Float32, reflect.Float64:
		switch tv := v.(type) {
		case float64:
			field.SetFloat(tv)
		default:
			i, ok := toInt64(v)
			if !ok {
				return mismatch()
			}
			field.SetFloat(float64(i))
		}

	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		field.SetBool(b)

	case reflect.String:
		s, ok := v.(string)
		if !ok {
			return mismatch()
		}
		field.SetString(s)

	default:
		return errors.Errorf("unsupported field type [%s]", field.Type())
	}
	return nil
}

// toInt64 accepts the integer representations produced by the yaml and toml
// decoders, plus integral floats.
func toInt64(v interface{}) (int64, bool) {
	switch tv := v.(type) {
	case int:
		return int64(tv), true
	case int32:
		return int64(tv), true
	case int64:
		return tv, true
	case uint32:
		return int64(tv), true
	case uint64:
		if tv > math.MaxInt64 {
			return 0, false
		}
		return int64(tv), true
	case float64:
		if tv != math.Trunc(tv) {
			return 0, false
		}
		return int64(tv), true
	default:
		return 0, false
	}
}

func Dump(label string, cf interface{}) string {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() == reflect.Ptr {
		cfV = cfV.Elem()
	}
	if cfV.Kind() != reflect.Struct {
		return ""
	}
	out := label + " {\n"
	format := fmt.Sprintf("\t%%-%ds %%v\n", maxKeyLength(cfV))
	for i := 0; i < cfV.NumField(); i++ {
		if cfV.Field(i).CanInterface() {
			key := keyName(cfV.Type().Field(i))
			out += fmt.Sprintf(format, key, cfV.Field(i).Interface())
		}
	}
	out += "}\n"
	return out
}

func keyName(v reflect.StructField) string {
	key := v.Name
	tag := v.Tag.Get("cf")
	if tag != "" {
		key = tag
	}
	return key
}

func maxKeyLength(cfV reflect.Value) int {
	maxKeyLength := 0
	for i := 0; i < cfV.NumField(); i++ {
		key := keyName(cfV.Type().Field(i))
		keyLength := len(key)
		if keyLength > maxKeyLength {
			maxKeyLength = keyLength
		}
	}
	return maxKeyLength
}
