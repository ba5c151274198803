package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes the error.
type Kind string

const (
	// KindMalformedInput marks corrupt or non-conforming input bytes
	// (bad zlib header, PNG signature mismatch, bad WebP version...).
	KindMalformedInput Kind = "malformed_input"
	// KindUnsupportedFeature marks well-formed input that uses a feature
	// this module does not implement (VP8L transforms, PNG interlacing...).
	KindUnsupportedFeature Kind = "unsupported_feature"
	// KindDegradedInput marks input that is clamped or ignored rather than
	// rejected. Core operations never return it; it is used to tag log
	// entries.
	KindDegradedInput Kind = "degraded_input"
	// KindInvalidRequest marks a caller-directed option that cannot be
	// satisfied, such as an empty clip rectangle.
	KindInvalidRequest Kind = "invalid_request"
)

// Error is the structured error type used throughout the module.
type Error struct {
	Op     string // component: "deflate", "png", "webp", "layout", "diff", "render"
	Kind   Kind
	Detail string
	Value  any
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(strings.ReplaceAll(string(e.Kind), "_", " "))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. An empty Op or Kind in the
// target matches any value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(op string, kind Kind) *Builder {
	return &Builder{err: Error{Op: op, Kind: kind}}
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Value sets the offending value.
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Malformed creates a KindMalformedInput error.
func Malformed(op, format string, args ...any) *Error {
	return New(op, KindMalformedInput).Detail(format, args...).Build()
}

// Unsupported creates a KindUnsupportedFeature error naming the missing feature.
func Unsupported(op, format string, args ...any) *Error {
	return New(op, KindUnsupportedFeature).Detail(format, args...).Build()
}

// InvalidRequest creates a KindInvalidRequest error.
func InvalidRequest(op, format string, args ...any) *Error {
	return New(op, KindInvalidRequest).Detail(format, args...).Build()
}

// Wrap wraps an existing error with a kind and context.
func Wrap(op string, kind Kind, cause error, detail string) *Error {
	return &Error{Op: op, Kind: kind, Detail: detail, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if
// there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
