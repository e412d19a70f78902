package errs

import (
	"errors"
	"strconv"
	"strings"
)

// CodeError is the error currency of the gateway: a stable numeric code,
// a short message, and an optional free-form detail.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

func (e *CodeError) clone() *CodeError {
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: e.Detail}
}

// WithDetail returns a copy carrying extra detail; the receiver is unchanged
// so the predefined sentinels stay clean.
func (e *CodeError) WithDetail(detail string) *CodeError {
	r := e.clone()
	if r.Detail == "" {
		r.Detail = detail
	} else {
		r.Detail += ", " + detail
	}
	return r
}

// WrapMsg attaches a message plus key-value pairs as detail.
func (e *CodeError) WrapMsg(msg string, kv ...any) *CodeError {
	return e.WithDetail(toString(msg, kv))
}

func (e *CodeError) Is(err error) bool {
	var codeErr *CodeError
	if !errors.As(err, &codeErr) {
		return false
	}
	return e.Code == codeErr.Code
}

// AsCodeError unwraps err down to a *CodeError, or maps it to
// ServerInternalError when it is something else entirely.
func AsCodeError(err error) *CodeError {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr
	}
	return ErrInternal.WithDetail(err.Error())
}

func toString(msg string, kv []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		sb.WriteString(" ")
		sb.WriteString(toStr(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(toStr(kv[i+1]))
		}
	}
	return sb.String()
}

func toStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return "?"
	}
}
