package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// asFloat 接受任意数值类型或数字字符串。
func asFloat(value interface{}) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrParamType, v)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: want number, got %T", ErrParamType, value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", ErrParamType, f)
	}
	return f, nil
}

// asInt 接受整数类型、整数值的浮点数或整数字符串。
func asInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32, float64, string:
		f, err := asFloat(v)
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrParamType, f)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("%w: want integer, got %T", ErrParamType, value)
	}
}

func asBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a bool", ErrParamType, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: want bool, got %T", ErrParamType, value)
	}
}
