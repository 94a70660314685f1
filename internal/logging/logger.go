// Package logging provides the minimal printf-style logging contract the
// pipeline components depend on, plus a colored console implementation for
// the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// Level gates which messages a console logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	arrowStyle = color.New(color.FgCyan, color.Bold)
	debugStyle = color.New(color.FgHiBlack)
	warnStyle  = color.New(color.FgYellow)
	errorStyle = color.New(color.FgRed)
)

// Console writes "==> message" lines to out, coloring by severity. It is
// safe for use from a single goroutine per line; the mutex only keeps
// interleaved writers whole.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
}

// NewConsole returns a console logger writing to stderr.
func NewConsole(level Level) *Console {
	return &Console{out: os.Stderr, level: level}
}

// NewConsoleWriter returns a console logger writing to out.
func NewConsoleWriter(out io.Writer, level Level) *Console {
	return &Console{out: out, level: level}
}

func (c *Console) emit(level Level, style *color.Color, format string, args ...any) {
	if level < c.level {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", style.Sprint("==>"), fmt.Sprintf(format, args...))
}

func (c *Console) Debug(format string, args ...any) {
	c.emit(LevelDebug, debugStyle, format, args...)
}

func (c *Console) Info(format string, args ...any) {
	c.emit(LevelInfo, arrowStyle, format, args...)
}

func (c *Console) Warn(format string, args ...any) {
	c.emit(LevelWarn, warnStyle, format, args...)
}

func (c *Console) Error(format string, args ...any) {
	c.emit(LevelError, errorStyle, format, args...)
}
