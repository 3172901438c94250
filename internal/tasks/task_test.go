package tasks

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/goals"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskPending, TaskInProgress, true},
		{TaskInProgress, TaskCompleted, true},
		{TaskPending, TaskCompleted, false},
		{TaskCompleted, TaskInProgress, false},
		{TaskCompleted, TaskPending, true},
		{TaskInProgress, TaskPending, true},
		{TaskPending, TaskCancelled, true},
		{TaskCompleted, TaskCancelled, false},
		{TaskCancelled, TaskPending, true},
		{TaskPending, TaskPending, true},
		{TaskPending, TaskStatus("archived"), false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestGeneratedLine(t *testing.T) {
	g := Generated{Category: "Coursework", Description: "practice 10 problems", Minutes: 120}
	if got := g.Line(duration.LocaleEN); got != "[Coursework] practice 10 problems (2 hours)" {
		t.Errorf("Line(en) = %q", got)
	}
	if got := g.Line(duration.LocaleZH); got != "【Coursework】practice 10 problems (2小时)" {
		t.Errorf("Line(zh) = %q", got)
	}

	g.Label = "about 2 hours"
	if got := g.Line(duration.LocaleEN); !strings.HasSuffix(got, "(about 2 hours)") {
		t.Errorf("expected explicit label to win, got %q", got)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line     string
		category string
		desc     string
		minutes  int
	}{
		{"[Coursework] practice 10 problems (2 hours)", "Coursework", "practice 10 problems", 120},
		{"【复习巩固】整理学习笔记 (30分钟)", "复习巩固", "整理学习笔记", 30},
		{"plain task without markers", "Study Task", "plain task without markers", duration.DefaultMinutes},
		{"  [Review]   notes (45 minutes)  ", "Review", "notes", 45},
	}
	for _, tt := range tests {
		g := ParseLine(tt.line, duration.LocaleEN)
		if g.Category != tt.category || g.Description != tt.desc || g.Minutes != tt.minutes {
			t.Errorf("ParseLine(%q) = %+v", tt.line, g)
		}
	}
}

func TestParseLine_RoundTrip(t *testing.T) {
	for _, locale := range []duration.Locale{duration.LocaleEN, duration.LocaleZH} {
		in := Generated{Category: ReviewLabel(locale), Description: "consolidate notes", Minutes: 30}
		out := ParseLine(in.Line(locale), locale)
		if out.Category != in.Category || out.Description != in.Description || out.Minutes != in.Minutes {
			t.Errorf("%s: round trip mismatch: in=%+v out=%+v", locale, in, out)
		}
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := CategoryLabel(goals.CategorySkill, duration.LocaleEN); got != "Skill Building" {
		t.Errorf("got %q", got)
	}
	if got := CategoryLabel(goals.CategoryCareer, duration.LocaleZH); got != "职业规划" {
		t.Errorf("got %q", got)
	}
	if got := CategoryLabel(goals.Category("hobby"), duration.LocaleEN); got != "Study Task" {
		t.Errorf("unknown category should fall back, got %q", got)
	}
}

func TestCategory(t *testing.T) {
	if got := Category("[Review] x (1 hour)", duration.LocaleEN); got != "Review" {
		t.Errorf("got %q", got)
	}
	if got := Category("nothing here", duration.LocaleZH); got != "学习任务" {
		t.Errorf("got %q", got)
	}
}

func TestGenerateTaskID(t *testing.T) {
	id := GenerateTaskID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a uuid, got %q", id)
	}

	const n = 100000
	seen := make(map[string]struct{}, n)
	for range n {
		id := GenerateTaskID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q after %d ids", id, len(seen))
		}
		seen[id] = struct{}{}
	}
}

func TestDefaultContent(t *testing.T) {
	got := DefaultContent(duration.LocaleEN)
	if got != "[Study Task] Study Task (1 hour)" {
		t.Errorf("got %q", got)
	}
	if duration.Minutes(got) != duration.DefaultMinutes {
		t.Errorf("default content should parse to the default duration")
	}
}
