package ui

import (
	"fmt"
	"strings"

	"github.com/taskdrop/taskdrop/internal/types"
)

// RenderTaskPreview renders a numbered preview of proposed tasks for the
// terminal, with markdown descriptions rendered through glamour.
func RenderTaskPreview(tasks []types.ProposedTask) string {
	var sb strings.Builder
	sb.WriteString(RenderCategory(fmt.Sprintf("Preview of %d tasks", len(tasks))))
	sb.WriteString("\n")
	sb.WriteString(RenderSeparator())
	sb.WriteString("\n")

	for i, task := range tasks {
		fmt.Fprintf(&sb, "%s %s  %s %s  %s %s\n",
			RenderAccent(fmt.Sprintf("%d.", i+1)),
			TitleStyle.Render(task.Title),
			RenderMuted("priority:"), RenderPriority(task.Priority),
			RenderMuted("state:"), RenderState(task.State),
		)
		if desc := strings.TrimSpace(task.Description); desc != "" {
			sb.WriteString(strings.TrimRight(RenderMarkdown(desc), "\n"))
			sb.WriteString("\n")
		}
		if i < len(tasks)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// RenderStateResolution renders one line of the semantic-to-tracker state
// table. id is empty when the state does not resolve.
func RenderStateResolution(semantic types.WorkflowState, name, id string) string {
	if id == "" {
		return fmt.Sprintf("%s %-12s -> %s", RenderWarn(IconWarn), semantic, RenderMuted("(tracker default)"))
	}
	return fmt.Sprintf("%s %-12s -> %s %s", RenderPass(IconPass), semantic, name, RenderMuted(id))
}
