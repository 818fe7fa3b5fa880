package app

import (
	"strings"
	"testing"

	"loom/internal/types"
)

func TestWrapTextBreaksLongLines(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := "one two\nthree\nfour"
	if got != want {
		t.Fatalf("unexpected wrap:\n%q\nwant\n%q", got, want)
	}
}

func TestRenderKeyValuePanelSkipsBlankValues(t *testing.T) {
	out := renderKeyValuePanel("Onboarding", map[string]any{
		"role":    "Platform Engineer",
		"company": "",
	}, 40)
	if !strings.Contains(out, "role") || !strings.Contains(out, "Platform Engineer") {
		t.Fatalf("missing populated entry: %q", out)
	}
	if strings.Contains(out, "company") {
		t.Fatalf("blank value should be skipped: %q", out)
	}
}

func TestRenderPanelUnknownKindIsEmpty(t *testing.T) {
	m := newViewModel()
	m.state.SetPanel(types.PanelType("surprise"), map[string]any{"k": "v"})
	if out := m.renderPanel(40); out != "" {
		t.Fatalf("unknown panel kind should render nothing: %q", out)
	}
}

func TestRenderCompletionPanelListsApprovedSections(t *testing.T) {
	m := newViewModel()
	m.state.SetSectionDraft(&types.SectionDraft{Section: "summary", Content: "done"})
	m.state.ApproveSection("summary")
	m.state.CompletePipeline(nil)

	out := m.renderPanel(40)
	if !strings.Contains(out, "summary") || !strings.Contains(out, "approved") {
		t.Fatalf("completion panel missing approvals: %q", out)
	}
}

func TestLastAssistantMessage(t *testing.T) {
	m := newViewModel()
	m.state.AppendMessage(types.ChatRoleAssistant, "first")
	m.state.AppendMessage(types.ChatRoleUser, "question")
	m.state.AppendMessage(types.ChatRoleAssistant, "second")
	m.state.AppendMessage(types.ChatRoleSystem, "note")

	if got := m.lastAssistantMessage(); got != "second" {
		t.Fatalf("unexpected copy target %q", got)
	}
}
