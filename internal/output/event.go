package output

import "dockersentinel/internal/engine"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - file.report
// - run.finished
//
// JSON and YAML modes remain an aggregate of engine.Report values.
type Event struct {
	Type   string         `json:"type"`
	File   string         `json:"file,omitempty"`
	Report *engine.Report `json:"report,omitempty"`
	Files  int            `json:"files,omitempty"`
	Rules  int            `json:"rules,omitempty"`
	// ExitCode is only meaningful on run.finished, where 0 is a real value.
	ExitCode *int `json:"exit_code,omitempty"`
}

const (
	EventRunStarted  = "run.started"
	EventFileReport  = "file.report"
	EventRunFinished = "run.finished"
)

func RunStarted(files, rules int) Event {
	return Event{Type: EventRunStarted, Files: files, Rules: rules}
}

func RunFinished(files, exitCode int) Event {
	return Event{Type: EventRunFinished, Files: files, ExitCode: &exitCode}
}

func eventFromReport(r engine.Report) Event {
	return Event{Type: EventFileReport, File: r.File, Report: &r}
}
