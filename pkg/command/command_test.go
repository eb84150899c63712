package command

import (
	"errors"
	"strings"
	"testing"
)

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder("")

	cmd, err := b.Build("599", "2020-01-01")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !strings.Contains(cmd, "COMMAND='599'") {
		t.Errorf("Expected object id substitution, got %q", cmd)
	}
	if got := strings.Count(cmd, "2020-01-01"); got != 2 {
		t.Errorf("Expected 2 date substitutions, got %d", got)
	}
	if strings.Contains(cmd, ObjectDateMark) || strings.Contains(cmd, ObjectIDMark) {
		t.Errorf("Placeholders left in command: %q", cmd)
	}
}

func TestBuilder_BuildFirstObjectIDOnly(t *testing.T) {
	b := Builder{Template: "A=OBJECT_ID B=OBJECT_ID"}

	cmd, err := b.Build("1", "d")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if cmd != "A=1 B=OBJECT_ID" {
		t.Errorf("Build() = %q, want %q", cmd, "A=1 B=OBJECT_ID")
	}
}

func TestBuilder_BuildDoesNotRescan(t *testing.T) {
	b := Builder{Template: "OBJECT_ID OBJECT_DATE OBJECT_DATE"}

	cmd, err := b.Build("x", "OBJECT_DATE")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if cmd != "x OBJECT_DATE OBJECT_DATE" {
		t.Errorf("Build() = %q", cmd)
	}
}

func TestBuilder_MissingObjectID(t *testing.T) {
	b := Builder{Template: "START_TIME='OBJECT_DATE'"}

	cmd, err := b.Build("199", "2020-01-01")
	if !errors.Is(err, ErrMissingObjectID) {
		t.Errorf("Build() error = %v, want ErrMissingObjectID", err)
	}
	if cmd != "" {
		t.Errorf("Build() = %q, want empty result", cmd)
	}
}

func TestBodyID(t *testing.T) {
	tests := []struct {
		idx        int
		barycenter bool
		want       int
		wantObject string
	}{
		{1, false, 199, "199"},
		{3, false, 399, "399"},
		{9, false, 999, "999"},
		{10, false, 99, "099"},
		{1, true, 1, "1"},
		{3, true, 3, "3"},
		{5, true, 5, "5"},
		{10, true, 0, "0"},
	}

	for _, tt := range tests {
		if got := BodyID(tt.idx, tt.barycenter); got != tt.want {
			t.Errorf("BodyID(%d, %v) = %d, want %d", tt.idx, tt.barycenter, got, tt.want)
		}
		if got := ObjectID(tt.idx, tt.barycenter); got != tt.wantObject {
			t.Errorf("ObjectID(%d, %v) = %q, want %q", tt.idx, tt.barycenter, got, tt.wantObject)
		}
	}
}

func TestTimestampAndEpoch(t *testing.T) {
	if got := DateString(2020); got != "2020-01-01" {
		t.Errorf("DateString(2020) = %q", got)
	}
	ts := Timestamp(2020)
	if ts != "2020-01-01 00:00:00" {
		t.Errorf("Timestamp(2020) = %q", ts)
	}

	secs, err := EpochSeconds(ts)
	if err != nil {
		t.Fatalf("EpochSeconds() error = %v", err)
	}
	if secs != 1577836800 {
		t.Errorf("EpochSeconds(%q) = %d, want 1577836800", ts, secs)
	}

	if _, err := EpochSeconds("not a time"); err == nil {
		t.Error("Expected error for malformed timestamp")
	}
}
