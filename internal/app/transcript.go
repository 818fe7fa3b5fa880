package app

import (
	"strings"

	"loom/internal/types"
)

// renderTranscript renders the chat history plus any in-flight streaming
// text and the tool activity ribbon. The result feeds the viewport.
func (m *Model) renderTranscript(width int) string {
	if width <= 0 {
		return ""
	}
	var blocks []string
	for _, message := range m.state.Messages() {
		blocks = append(blocks, renderChatMessage(message, width))
	}
	if streaming := m.state.StreamingText(); streaming != "" {
		block := agentLabelStyle.Render("assistant") + "\n" + streamingStyle.Render(wrapText(streaming, width)) + streamingStyle.Render("▌")
		blocks = append(blocks, block)
	}
	if ribbon := m.renderToolRibbon(width); ribbon != "" {
		blocks = append(blocks, ribbon)
	}
	return strings.Join(blocks, "\n\n")
}

func renderChatMessage(message types.ChatMessage, width int) string {
	switch message.Role {
	case types.ChatRoleUser:
		return userLabelStyle.Render("you") + "\n" + wrapText(message.Content, width)
	case types.ChatRoleSystem:
		return systemLabelStyle.Render(wrapText(message.Content, width))
	default:
		return agentLabelStyle.Render("assistant") + "\n" + renderMarkdown(message.Content, width)
	}
}

func (m *Model) renderToolRibbon(width int) string {
	tools := m.state.Tools()
	if len(tools) == 0 {
		return ""
	}
	var lines []string
	for _, tool := range tools {
		label := tool.Name
		if tool.Description != "" {
			label += " · " + tool.Description
		}
		if tool.Status == types.ToolStatusComplete {
			line := "✓ " + label
			if tool.Summary != "" {
				line += " · " + tool.Summary
			}
			lines = append(lines, toolDoneStyle.Render(truncateLine(line, width)))
		} else {
			lines = append(lines, toolRunningStyle.Render(truncateLine("⋯ "+label, width)))
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(text string, width int) string {
	if width <= 1 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}

// lastAssistantMessage is the copy target for the clipboard binding.
func (m *Model) lastAssistantMessage() string {
	messages := m.state.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.ChatRoleAssistant {
			return messages[i].Content
		}
	}
	return ""
}
