package diagnostics

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestDiagnosticError(t *testing.T) {
	d := New(UnknownVariable, Location{File: "main.dm", Line: 4, Column: 2}, "undefined variable foo")
	got := d.Error()
	if got == "" {
		t.Fatalf("expected non-empty Error() string")
	}
}

func TestSinkReportsAndTracksErrors(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	sink := NewSink(log)

	sink.Report(Warn(UnsupportedFeature, Location{Line: 1}, "named args not lowered"))
	if sink.HasErrors() {
		t.Errorf("expected HasErrors() to be false after only a warning")
	}

	sink.Report(New(UnknownType, Location{Line: 2}, "unknown type /obj/bogus"))
	if !sink.HasErrors() {
		t.Errorf("expected HasErrors() to be true after an error diagnostic")
	}

	if len(sink.Diagnostics()) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(sink.Diagnostics()))
	}
	if len(hook.Entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(hook.Entries))
	}

	sink.Reset()
	if len(sink.Diagnostics()) != 0 {
		t.Errorf("expected Reset() to clear diagnostics")
	}
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("argument id 300 exceeds byte range")
	d := Internal(Location{Line: 10}, cause)
	if d.Kind != InternalError {
		t.Errorf("expected InternalError kind, got %v", d.Kind)
	}
	if d.Cause == nil {
		t.Errorf("expected wrapped Cause to be set")
	}
}
