package output

import (
	"errors"
	"fmt"
	"io"

	"dockersentinel/internal/engine"
)

// Sink receives run events and per-file reports.
type Sink interface {
	Write(v any) error
	Close() error
}

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Manager fans one audit run out to every sink and tracks its exit code.
type Manager struct {
	sinks []Sink
	files int
	exit  int
}

func NewManager(sinks ...Sink) (*Manager, error) {
	m := &Manager{}
	for _, s := range sinks {
		if err := m.AddSink(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	if s == nil {
		return errors.New("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Start announces a run over files with rules active.
func (m *Manager) Start(files, rules int) error {
	return m.Write(RunStarted(files, rules))
}

// Report forwards r and folds it into the run exit code.
func (m *Manager) Report(r engine.Report) error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	m.files++
	if code := engine.ExitCode(r); code > m.exit {
		m.exit = code
	}
	return m.Write(r)
}

// ExitCode is the worst exit code of the reports seen so far.
func (m *Manager) ExitCode() int {
	if m == nil {
		return engine.ExitOK
	}
	return m.exit
}

// Finish announces the end of the run, closes every sink and returns the run
// exit code. Sinks are closed even when the final event fails.
func (m *Manager) Finish() (int, error) {
	if m == nil {
		return engine.ExitOperational, errors.New("output manager is nil")
	}
	werr := m.Write(RunFinished(m.files, m.exit))
	cerr := m.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return engine.ExitOperational, err
	}
	return m.exit, nil
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

func (m *Manager) Close() error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
