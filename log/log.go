// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package log provides the shell's structured logger, in the
// root()/New(ctx...)/leveled-method idiom familiar from go-ethereum's
// log package: a Logger carries a fixed slice of contextual key-value
// pairs, and Debug/Info/Warn/Error append a message-specific set on
// top. Built on log/slog (stdlib, Go 1.21+) for the actual
// formatting/handler machinery rather than hand-rolling one, since
// that idiom is itself normally a thin layer over a structured-logging
// backend.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the leveled, contextual logging interface used throughout
// the engine, dispatcher, and CLI.
type Logger interface {
	New(ctx ...interface{}) Logger
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
}

type logger struct {
	h   *slog.Logger
	ctx []interface{}
}

// Root returns the package's default logger, writing leveled text lines
// to stderr.
func Root() Logger {
	return root
}

var root Logger = &logger{h: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))}

// SetDefault replaces the logger Root returns, for embedders that want
// a different handler (a discard sink in tests, a JSON handler in
// production).
func SetDefault(l Logger) { root = l }

// New returns a child logger handling l's handler and ctx appended to
// any previously bound context.
func (l *logger) New(ctx ...interface{}) Logger {
	merged := append(append([]interface{}{}, l.ctx...), ctx...)
	return &logger{h: l.h, ctx: merged}
}

func (l *logger) Debug(msg string, ctx ...interface{}) { l.log(slog.LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.log(slog.LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.log(slog.LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.log(slog.LevelError, msg, ctx) }

func (l *logger) log(level slog.Level, msg string, callCtx []interface{}) {
	args := append(append([]interface{}{}, l.ctx...), callCtx...)
	l.h.Log(context.Background(), level, msg, args...)
}

// NewDiscard returns a Logger that drops every record, for use in tests
// that want the real Logger interface without stderr noise.
func NewDiscard() Logger {
	return &logger{h: slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
