// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log is this module's logging facade. It re-exports the
// kratos structured logger so every layer (transport, transaction
// driver, session, CLI) logs through one small interface instead of
// each picking its own logging library.
package log

import kratoslog "github.com/go-kratos/kratos/v2/log"

// Logger is the capability every layer accepts to customize logging;
// passing nil falls back to a filtered stderr logger.
type Logger = kratoslog.Logger

// Helper wraps a Logger with level-named convenience methods
// (Helper.Infof, Helper.Errorw, ...).
type Helper = kratoslog.Helper

// Level is a log severity.
type Level = kratoslog.Level

const (
	LevelDebug = kratoslog.LevelDebug
	LevelInfo  = kratoslog.LevelInfo
	LevelWarn  = kratoslog.LevelWarn
	LevelError = kratoslog.LevelError
	LevelFatal = kratoslog.LevelFatal
)

// NewStdLogger returns a Logger that writes to w.
func NewStdLogger(w interface {
	Write(p []byte) (n int, err error)
}) Logger {
	return kratoslog.NewStdLogger(w)
}

// NewFilter wraps logger with the given filter options (e.g.
// FilterLevel) so only matching records reach it.
func NewFilter(logger Logger, opts ...kratoslog.Option) Logger {
	return kratoslog.NewFilter(logger, opts...)
}

// FilterLevel returns a NewFilter option that drops records below
// level.
func FilterLevel(level Level) kratoslog.Option {
	return kratoslog.FilterLevel(level)
}

// NewHelper wraps logger in a Helper.
func NewHelper(logger Logger) *Helper {
	return kratoslog.NewHelper(logger)
}

// With attaches key/value pairs to every record logged through the
// returned Logger.
func With(logger Logger, keyvals ...interface{}) Logger {
	return kratoslog.With(logger, keyvals...)
}
