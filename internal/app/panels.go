package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"

	"loom/internal/payload"
	"loom/internal/types"
)

// renderPanel renders the right-hand context panel for the active panel
// kind. Unknown kinds render nothing rather than failing the frame.
func (m *Model) renderPanel(width int) string {
	kind, data := m.state.Panel()
	if width <= 4 {
		return ""
	}
	inner := width - 4
	var body string
	switch kind {
	case types.PanelTypeOnboardingSummary:
		body = renderKeyValuePanel("Onboarding", data, inner)
	case types.PanelTypeLiveResume:
		body = renderLiveResumePanel(data, inner)
	case types.PanelTypePositioning:
		body = m.renderPositioningPanel(inner)
	case types.PanelTypeSectionDraft:
		body = m.renderSectionDraftPanel(inner)
	case types.PanelTypeQualityDashboard:
		body = m.renderQualityPanel(inner)
	case types.PanelTypeCompletion:
		body = m.renderCompletionPanel(inner)
	default:
		return ""
	}
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return panelBorderStyle.Width(width - 2).Render(body)
}

func renderKeyValuePanel(title string, data map[string]any, width int) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	labelWidth := 0
	for _, key := range keys {
		if w := runewidth.StringWidth(key); w > labelWidth {
			labelWidth = w
		}
	}

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render(title))
	for _, key := range keys {
		value := payload.String(data, key)
		if value == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(panelLabelStyle.Render(runewidth.FillRight(key, labelWidth)))
		b.WriteString("  ")
		b.WriteString(runewidth.Truncate(value, max(1, width-labelWidth-2), "…"))
	}
	return b.String()
}

func renderLiveResumePanel(data map[string]any, width int) string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Resume draft"))
	if headline := payload.String(data, "headline"); headline != "" {
		b.WriteString("\n")
		b.WriteString(runewidth.Truncate(headline, width, "…"))
	}
	changes, _ := data["changes"].([]any)
	if len(changes) > 0 {
		b.WriteString("\n")
		b.WriteString(panelFaintStyle.Render("Recent changes"))
		// Newest changes last; show the tail when the list outgrows the panel.
		start := 0
		if len(changes) > 6 {
			start = len(changes) - 6
		}
		for _, change := range changes[start:] {
			text, _ := change.(string)
			if strings.TrimSpace(text) == "" {
				continue
			}
			b.WriteString("\n· ")
			b.WriteString(runewidth.Truncate(text, max(1, width-2), "…"))
		}
	}
	return b.String()
}

func (m *Model) renderPositioningPanel(width int) string {
	question := m.state.PositioningQuestion()
	if question == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Positioning"))
	b.WriteString("\n")
	b.WriteString(wrapText(question.Question, width))
	for _, line := range question.Context {
		b.WriteString("\n")
		b.WriteString(panelFaintStyle.Render(runewidth.Truncate(line, width, "…")))
	}
	return b.String()
}

func (m *Model) renderSectionDraftPanel(width int) string {
	draft := m.state.SectionDraft()
	if draft == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Draft: " + draft.Section))
	b.WriteString("\n")
	b.WriteString(renderMarkdown(draft.Content, width))
	if ctx := draft.Context; ctx != nil {
		if len(ctx.Keywords) > 0 {
			b.WriteString("\n")
			b.WriteString(panelFaintStyle.Render("Keywords"))
			for _, keyword := range ctx.Keywords {
				b.WriteString("\n· ")
				b.WriteString(runewidth.Truncate(keyword.Keyword, max(1, width-12), "…"))
				b.WriteString(panelFaintStyle.Render(" (" + string(keyword.Priority) + ")"))
			}
		}
		if len(ctx.Suggestions) > 0 {
			b.WriteString("\n")
			b.WriteString(panelFaintStyle.Render("Suggestions"))
			for _, suggestion := range ctx.Suggestions {
				b.WriteString("\n· ")
				b.WriteString(runewidth.Truncate(suggestion.Text, width, "…"))
			}
		}
	}
	return b.String()
}

func (m *Model) renderQualityPanel(width int) string {
	scores := m.state.QualityScores()
	if scores == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Quality"))
	b.WriteString("\n")
	b.WriteString("Overall ")
	b.WriteString(scoreStyle(scores.Overall).Render(formatScore(scores.Overall)))
	dims := make([]string, 0, len(scores.Dimensions))
	for name := range scores.Dimensions {
		dims = append(dims, name)
	}
	sort.Strings(dims)
	labelWidth := 0
	for _, name := range dims {
		if w := runewidth.StringWidth(name); w > labelWidth {
			labelWidth = w
		}
	}
	for _, name := range dims {
		value := scores.Dimensions[name]
		b.WriteString("\n")
		b.WriteString(panelLabelStyle.Render(runewidth.FillRight(name, labelWidth)))
		b.WriteString("  ")
		b.WriteString(scoreStyle(value).Render(formatScore(value)))
	}
	if scores.Summary != "" {
		b.WriteString("\n")
		b.WriteString(wrapText(scores.Summary, width))
	}
	if readiness := m.state.DraftReadiness(); readiness != nil && !readiness.Ready {
		b.WriteString("\n")
		b.WriteString(panelFaintStyle.Render("Missing: " + strings.Join(readiness.MissingSections, ", ")))
	}
	return b.String()
}

func (m *Model) renderCompletionPanel(width int) string {
	resume := m.state.Resume()
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Pipeline complete"))
	if resume == nil {
		return b.String()
	}
	if resume.Headline != "" {
		b.WriteString("\n")
		b.WriteString(wrapText(resume.Headline, width))
	}
	sections := make([]string, 0, len(resume.Sections))
	for name := range resume.Sections {
		sections = append(sections, name)
	}
	sort.Strings(sections)
	approved := m.state.ApprovedSections()
	for _, name := range sections {
		b.WriteString("\n· ")
		b.WriteString(name)
		if _, ok := approved[name]; ok {
			b.WriteString(toolDoneStyle.Render(" approved"))
		}
	}
	return b.String()
}

func scoreStyle(value float64) lipgloss.Style {
	switch {
	case value >= 0.8:
		return scoreGoodStyle
	case value >= 0.5:
		return scoreMidStyle
	default:
		return scoreLowStyle
	}
}

func formatScore(value float64) string {
	return fmt.Sprintf("%.0f%%", value*100)
}

func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	lineWidth := 0
	for i, word := range words {
		w := runewidth.StringWidth(word)
		if i > 0 {
			if lineWidth+1+w > width {
				b.WriteString("\n")
				lineWidth = 0
			} else {
				b.WriteString(" ")
				lineWidth++
			}
		}
		b.WriteString(word)
		lineWidth += w
	}
	return b.String()
}
