package types

import (
	"errors"
	"fmt"
)

// 错误分类，调用方通过 errors.Is 判断
var (
	ErrNameNotFound         = errors.New("name not found")
	ErrDomainNotFound       = errors.New("domain not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrShapeMismatch        = errors.New("shape mismatch")
	ErrIncompatibleSolution = errors.New("incompatible solution")
	ErrSolveFailed          = errors.New("solve failed")
)

// Error 带操作和区域信息的错误
type Error struct {
	Op     string // 操作名称
	Domain string // 区域名称，可为空
	Err    error  // 底层错误
}

// Errorf 创建带分类的错误
func Errorf(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))}
}

// DomainErrorf 创建带区域信息的错误
func DomainErrorf(op, domain string, kind error, format string, args ...any) error {
	return &Error{Op: op, Domain: domain, Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))}
}

func (e *Error) Error() string {
	if e.Domain != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.Domain, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
