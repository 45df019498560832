package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/alexandernovadev/languagesai/internal/screen"
)

type stubScreen struct {
	title   string
	initRan bool
	updates int
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}

func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) {
	s.updates++
	return s, nil
}

func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

func TestPushAndPop(t *testing.T) {
	attempt := &stubScreen{title: "attempt"}
	r := New(attempt)

	result := &stubScreen{title: "result"}
	r.Update(PushScreenMsg{Screen: result})
	if r.Depth() != 2 || r.Active() != result {
		t.Fatalf("depth=%d active=%q, want 2 result", r.Depth(), r.Active().Title())
	}
	if !result.initRan {
		t.Error("pushed screen was not initialized")
	}

	r.Update(PopScreenMsg{})
	if r.Active() != attempt {
		t.Errorf("active = %q, want attempt", r.Active().Title())
	}

	r.Update(PopScreenMsg{})
	if r.Depth() != 1 {
		t.Errorf("depth = %d, the last screen must stay", r.Depth())
	}
}

func TestReplace(t *testing.T) {
	attempt := &stubScreen{title: "attempt"}
	r := New(attempt)

	result := &stubScreen{title: "result"}
	r.Update(ReplaceScreenMsg{Screen: result})

	if r.Depth() != 1 {
		t.Errorf("depth = %d, want 1", r.Depth())
	}
	if r.View(80, 24) != "result" {
		t.Errorf("view = %q, want result", r.View(80, 24))
	}
	if !result.initRan {
		t.Error("replacement was not initialized")
	}
}

func TestUpdateForwardsToActive(t *testing.T) {
	bottom := &stubScreen{title: "bottom"}
	top := &stubScreen{title: "top"}
	r := New(bottom)
	r.Push(top)

	r.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if top.updates != 1 || bottom.updates != 0 {
		t.Errorf("updates top=%d bottom=%d, want 1 0", top.updates, bottom.updates)
	}
}
