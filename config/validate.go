package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/stellarcargo/peercall/xerrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct 按 validate 标签校验结构体
//
// 所有违规项合并为一条错误并包装 xerrors.ErrInvalidConfig，调用方据此拒绝启动。
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return xerrors.Wrap(xerrors.ErrInvalidConfig, err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", xerrors.ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s must satisfy %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
}
