package ui

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusMsg carries a notification into the panel's status bar.
type StatusMsg struct {
	Level   slog.Level
	Message string
}

// StatusLogHandler is a slog.Handler that forwards warning-and-above
// records to a running bubbletea program as StatusMsg values, so
// operational noise surfaces in the status bar instead of corrupting
// the alternate screen. Records below the level are dropped.
type StatusLogHandler struct {
	level slog.Level

	mu      sync.Mutex
	program *tea.Program
	attrs   []slog.Attr
}

// NewStatusLogHandler creates a handler that forwards records at or
// above level.
func NewStatusLogHandler(level slog.Level) *StatusLogHandler {
	return &StatusLogHandler{level: level}
}

// SetProgram connects the handler to a running program. Records that
// arrive before a program is set are dropped.
func (h *StatusLogHandler) SetProgram(p *tea.Program) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.program = p
}

func (h *StatusLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *StatusLogHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	p := h.program
	attrs := h.attrs
	h.mu.Unlock()
	if p == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString(record.Message)
	appendAttr := func(a slog.Attr) bool {
		if a.Key == "" {
			return true
		}
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(a.Value.String())
		return true
	}
	for _, a := range attrs {
		appendAttr(a)
	}
	record.Attrs(appendAttr)

	p.Send(StatusMsg{Level: record.Level, Message: b.String()})
	return nil
}

func (h *StatusLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &StatusLogHandler{level: h.level, program: h.program, attrs: merged}
}

func (h *StatusLogHandler) WithGroup(string) slog.Handler {
	return h
}

// ProgramNotifier delivers user-facing notices to the status bar via
// the same StatusMsg path the log handler uses.
type ProgramNotifier struct {
	mu      sync.Mutex
	program *tea.Program
}

func NewProgramNotifier() *ProgramNotifier {
	return &ProgramNotifier{}
}

// SetProgram connects the notifier to a running program.
func (n *ProgramNotifier) SetProgram(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = p
}

func (n *ProgramNotifier) send(level slog.Level, msg string) {
	n.mu.Lock()
	p := n.program
	n.mu.Unlock()
	if p == nil {
		return
	}
	p.Send(StatusMsg{Level: level, Message: msg})
}

func (n *ProgramNotifier) Info(msg string)  { n.send(slog.LevelInfo, msg) }
func (n *ProgramNotifier) Warn(msg string)  { n.send(slog.LevelWarn, msg) }
func (n *ProgramNotifier) Error(msg string) { n.send(slog.LevelError, msg) }
