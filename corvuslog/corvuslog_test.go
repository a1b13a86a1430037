/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package corvuslog

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogFiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warning)

	if err := l.Log("ignored fine message", Fine); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output below minimum level, got %q", buf.String())
	}

	if err := l.Log("severe message", Severe); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if !strings.Contains(buf.String(), "SEVERE") || !strings.Contains(buf.String(), "severe message") {
		t.Errorf("expected SEVERE message in output, got %q", buf.String())
	}
}

func TestSetMinLevelChangesFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Severe)
	l.Log("should not appear", Fine)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	l.SetMinLevel(Fine)
	l.Log("now visible", Fine)
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("expected message after lowering minimum level, got %q", buf.String())
	}
}

func TestNilLoggerLogIsNoOp(t *testing.T) {
	var l *Logger
	if err := l.Log("anything", Severe); err != nil {
		t.Errorf("nil logger Log should be a no-op, got error %v", err)
	}
}
