package assert

import (
	"fmt"
	"reflect"
)

// NotNil panics on nil, including nil pointers and interfaces holding them.
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			panic(fmt.Sprintf("expected value of type %T to be not nil", value))
		}
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

func NonNegative[T ~int | ~int64 | ~float64](value T) {
	if value < 0 {
		panic(fmt.Sprintf("expected %v to be non-negative", value))
	}
}
