package logger

import (
	"go.uber.org/zap"
)

const (
	LevelDebug = zap.DebugLevel
	LevelInfo  = zap.InfoLevel
	LevelWarn  = zap.WarnLevel
	LevelError = zap.ErrorLevel
	LevelFatal = zap.FatalLevel
)

var (
	String     = zap.String
	Strings    = zap.Strings
	Stringer   = zap.Stringer
	Int        = zap.Int
	Int64      = zap.Int64
	Duration   = zap.Duration
	Bool       = zap.Bool
	Time       = zap.Time
	ErrorF     = zap.Error
	NamedError = zap.NamedError
	Any        = zap.Any
)

type (
	Field = zap.Field
)
