package resilient

import (
	"fmt"

	"github.com/stellarcargo/peercall/xerrors"
)

// ErrNoCall Call.Do 为空
var ErrNoCall = xerrors.Wrap(xerrors.ErrInvalidInput, "resilient: call has no Do func")

// NotFoundError 依赖明确报告实体不存在
type NotFoundError struct {
	Dependency string
	Key        string
	Cause      error
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: referenced entity does not exist", e.Dependency)
	}
	return fmt.Sprintf("%s: referenced entity %s does not exist", e.Dependency, e.Key)
}

// Unwrap 同时指向分类哨兵与原始错误
func (e *NotFoundError) Unwrap() []error {
	if e.Cause == nil {
		return []error{xerrors.ErrNotFound}
	}
	return []error{xerrors.ErrNotFound, e.Cause}
}

// UnavailableError 依赖无法给出答案
type UnavailableError struct {
	Dependency string
	Key        string
	Cause      error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s: dependency unavailable", e.Dependency)
	if e.Key != "" {
		msg = fmt.Sprintf("%s: dependency unavailable for %s", e.Dependency, e.Key)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{xerrors.ErrUnavailable}
	}
	return []error{xerrors.ErrUnavailable, e.Cause}
}

// IsNotFound 判断错误是否表示实体不存在
func IsNotFound(err error) bool {
	return xerrors.Is(err, xerrors.ErrNotFound)
}

// IsUnavailable 判断错误是否表示依赖不可用
func IsUnavailable(err error) bool {
	return xerrors.Is(err, xerrors.ErrUnavailable)
}
