package ui

import (
	"errors"
	"strings"
	"testing"

	"pascalc/internal/buildpipeline"
)

func TestProgressModelTracksUnits(t *testing.T) {
	events := make(chan buildpipeline.Event)
	model := NewProgressModel("build", []string{"a.pcu", "b.pcu"}, events).(*progressModel)

	model.Update(eventMsg{File: "a.pcu", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusWorking})
	if got := model.items[0].status; got != "lowering" {
		t.Fatalf("status = %q", got)
	}
	if got := model.fraction(); got != 0.2 {
		t.Fatalf("fraction = %v, want 0.2", got)
	}

	model.Update(eventMsg{File: "a.pcu", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusDone})
	model.Update(eventMsg{File: "b.pcu", Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusError, Err: errors.New("b.pcu: decode unit\ndetail")})
	model.Update(eventMsg{File: "unknown.pcu", Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusDone})
	if got := model.fraction(); got != 1 {
		t.Fatalf("fraction = %v, want 1", got)
	}
	if model.items[1].err != "b.pcu: decode unit" {
		t.Fatalf("err = %q", model.items[1].err)
	}

	model.Update(eventMsg{Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusError})
	_, cmd := model.Update(doneMsg{})
	if cmd == nil || !model.done {
		t.Fatal("done message must quit")
	}
	view := model.View()
	for _, want := range []string{"done: build (error)", "a.pcu", "b.pcu: decode unit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "detail") {
		t.Errorf("view shows more than the first error line:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"averyverylongname.pcu", 10, "averyve..."},
		{"日本語のファイル", 7, "日本..."},
		{"abcdef", 2, "ab"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
