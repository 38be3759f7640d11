package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

var (
	// ErrUnknownParam 参数名不存在。
	ErrUnknownParam = errors.New("unknown parameter")
	// ErrParamType 参数值类型无法转换为目标类型。
	ErrParamType = errors.New("parameter type mismatch")
)

// ParamError 描述一次被拒绝的运行时参数修改；旧值保持生效。
type ParamError struct {
	Name string
	Err  error
}

func (e *ParamError) Error() string {
	return "param " + e.Name + ": " + e.Err.Error()
}

func (e *ParamError) Unwrap() error { return e.Err }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息里使用 yaml 名称，与运行时参数名保持一致
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct 对带 validate 标签的结构体做校验，返回首个失败字段。
func validateStruct(section string, s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return ErrInvalid(fmt.Sprintf("%s.%s must be %s", section, fieldPath(fe), describeRule(fe)))
	}
	return err
}

// fieldPath 去掉根结构体名：AppConfig.symbols[XYZ].tickSize -> symbols[XYZ].tickSize
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "set"
	case "required_if":
		return "set when enabled"
	case "min":
		return "non-empty"
	case "gt":
		return "> " + fe.Param()
	case "gte":
		return ">= " + fe.Param()
	case "lt":
		return "< " + fe.Param()
	case "lte":
		return "<= " + fe.Param()
	case "gtefield":
		return ">= " + toSnake(fe.Param())
	default:
		return fe.Tag() + " " + fe.Param()
	}
}

// toSnake MinSpreadTicks -> min_spread_ticks
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
