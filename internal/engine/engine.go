package engine

import (
	"context"
	"fmt"

	"github.com/fabmask-data/maskforge/internal/field"
)

// ParamType identifies the wire type of an engine parameter.
type ParamType int

const (
	Number ParamType = iota
	String
	Boolean
)

func (t ParamType) String() string {
	switch t {
	case Number:
		return "number"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("ParamType(%d)", int(t))
	}
}

// Value is one engine parameter value. Exactly the field matching its Type
// is meaningful.
type Value struct {
	Type ParamType
	Num  float64
	Str  string
	Bool bool
}

// NumValue wraps a numeric parameter value.
func NumValue(v float64) Value { return Value{Type: Number, Num: v} }

// StrValue wraps a string parameter value.
func StrValue(s string) Value { return Value{Type: String, Str: s} }

// BoolValue wraps a boolean parameter value.
func BoolValue(b bool) Value { return Value{Type: Boolean, Bool: b} }

// Equal reports whether two values are identical in type and content.
func (v Value) Equal(o Value) bool { return v == o }

func (v Value) String() string {
	switch v.Type {
	case Number:
		return fmt.Sprintf("%g", v.Num)
	case String:
		return v.Str
	case Boolean:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return "<invalid>"
	}
}

// ParameterClient is the engine's named-parameter protocol, provided by the
// surrounding settings layer. Set returns the value the engine actually
// accepted, which may differ from the requested one; the engine is
// authoritative over its own parameter semantics.
type ParameterClient interface {
	Get(target, name string, typ ParamType) (Value, error)
	Set(target, name string, v Value, typ ParamType) (Value, error)
}

// CaptureClient is the field-sampling probe, provided by the surrounding
// system. Every capture is a blocking round trip to the engine and may
// take seconds to minutes. OffsetProbe moves the sampling region in-plane
// by a sub-cell amount; RestoreProbeOffset moves it back.
type CaptureClient interface {
	CaptureIndexField(ctx context.Context) (*field.RawCapture, error)
	OffsetProbe(ctx context.Context, dx, dy float64) error
	RestoreProbeOffset(ctx context.Context) error
}
