package protocol

import (
	"errors"
	"strconv"
)

var (
	ErrInvalidPayload = errors.New("invalid payload size")
	ErrTimeout        = errors.New("operation timed out")
	ErrInvalidChannel = errors.New("invalid channel (valid range: 0-125)")
)

// ErrKind categorizes framing errors so callers can decide how to react.
// None of them is fatal: the engine stays usable for the next attempt.
type ErrKind uint8

const (
	KindEncodingOverflow ErrKind = iota + 1
	KindDeliveryFailed
	KindNotAStartSequence
	KindReceiveTimeout
	KindDecodingFailure
	KindBufferOverflow
	KindReservedSequence
	KindInvalidConfig
	KindEncodingFailure
)

func (k ErrKind) String() string {
	switch k {
	case KindEncodingOverflow:
		return "encoding overflow"
	case KindDeliveryFailed:
		return "delivery failed"
	case KindNotAStartSequence:
		return "not a start sequence"
	case KindReceiveTimeout:
		return "receive timeout"
	case KindDecodingFailure:
		return "decoding failure"
	case KindBufferOverflow:
		return "buffer overflow"
	case KindReservedSequence:
		return "reserved sequence"
	case KindInvalidConfig:
		return "invalid config"
	case KindEncodingFailure:
		return "encoding failure"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Stage identifies which packet of a send attempt was not confirmed.
type Stage uint8

const (
	StageNone Stage = iota
	StageStart
	StageBlock
	StageEnd
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageBlock:
		return "block"
	case StageEnd:
		return "end"
	default:
		return "none"
	}
}

// Error is returned by every framing operation.
// Stage and Index are only meaningful for KindDeliveryFailed.
type Error struct {
	Kind  ErrKind
	Stage Stage
	Index int
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	switch e.Stage {
	case StageBlock:
		msg += " (stage=block, index=" + strconv.Itoa(e.Index) + ")"
	case StageStart, StageEnd:
		msg += " (stage=" + e.Stage.String() + ")"
	}
	if e.Inner == nil {
		return msg
	}
	return msg + ": " + e.Inner.Error()
}

func (e *Error) Unwrap() error { return e.Inner }

// Is matches any *Error of the same kind, so errors.Is(err, ErrReceiveTimeout) works
// regardless of stage, index or wrapped cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

func NewError(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func WrapError(kind ErrKind, msg string, inner error) *Error {
	return &Error{Kind: kind, Msg: msg, Inner: inner}
}

// DeliveryFailed reports an unconfirmed packet write. index is ignored unless stage is StageBlock.
func DeliveryFailed(stage Stage, index int) *Error {
	if stage != StageBlock {
		index = 0
	}
	return &Error{Kind: KindDeliveryFailed, Stage: stage, Index: index, Msg: "packet not delivered"}
}

func IsKind(err error, kind ErrKind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrEncodingOverflow  = NewError(KindEncodingOverflow, "message does not fit into buffer")
	ErrDeliveryFailed    = NewError(KindDeliveryFailed, "packet not delivered")
	ErrNotAStartSequence = NewError(KindNotAStartSequence, "block is not a start sequence")
	ErrReceiveTimeout    = NewError(KindReceiveTimeout, "message receive timed out")
	ErrDecodingFailure   = NewError(KindDecodingFailure, "cannot decode message")
	ErrBufferOverflow    = NewError(KindBufferOverflow, "reassembly buffer overflow")
	ErrReservedSequence  = NewError(KindReservedSequence, "payload block collides with a marker")
	ErrInvalidConfig     = NewError(KindInvalidConfig, "invalid link config")
	ErrEncodingFailure   = NewError(KindEncodingFailure, "cannot encode message")
)
