package core

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/reflectwalk"
)

// Validate walks v and reports the first part of it that cannot be represented in a JSON document.
func Validate(v any) error {
	w := &valueValidator{}
	if err := reflectwalk.Walk(v, w); err != nil {
		if w.key != "" {
			return fmt.Errorf("member %q: %w", w.key, err)
		}
		return err
	}
	return nil
}

// valueValidator remembers the last map key it entered so errors can point near the offending member.
type valueValidator struct {
	key string
}

func (w *valueValidator) Primitive(v reflect.Value) error {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.Uintptr:
		return fmt.Errorf("unsupported value of type %s", v.Type())
	case reflect.Float32, reflect.Float64:
		if !isFinite(v.Float()) {
			return fmt.Errorf("non-finite number %v", v.Float())
		}
	}
	return nil
}

func (w *valueValidator) Map(m reflect.Value) error {
	if m.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("unsupported map key type %s", m.Type().Key())
	}
	return nil
}

func (w *valueValidator) MapElem(m, k, v reflect.Value) error {
	w.key = k.String()
	return nil
}

func (w *valueValidator) Struct(v reflect.Value) error {
	if v.Type() == timeType {
		return reflectwalk.SkipEntry
	}
	return fmt.Errorf("unsupported value of type %s", v.Type())
}

func (w *valueValidator) StructField(reflect.StructField, reflect.Value) error {
	return nil
}
