package slackbot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/taskdrop/taskdrop/internal/batch"
	"github.com/taskdrop/taskdrop/internal/linear"
	"github.com/taskdrop/taskdrop/internal/types"
)

// Block action IDs.
const (
	ActionCreateAll = "create_all_tasks"
	ActionCancelAll = "cancel_all_tasks"
	ActionUndo      = "undo_tasks"
)

const (
	// Slack rejects messages with more than 50 blocks and section text over 3000 chars.
	maxBlocks         = 50
	maxSectionText    = 3000
	maxTitleLen       = 200
	maxDescriptionLen = 280

	// previewChrome counts the preview blocks that are not task sections:
	// header, divider, footer and buttons.
	previewChrome = 4
)

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("mrkdwn", text, false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("plain_text", text, false, false)
}

// escapeMrkdwn escapes the three characters Slack treats as control sequences.
func escapeMrkdwn(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

// textBlocks renders a message with no buttons. Updating a message with
// these blocks removes any buttons it had.
func textBlocks(text string) []slack.Block {
	return []slack.Block{
		slack.NewSectionBlock(mrkdwn(truncateForSlack(text, maxSectionText)), nil, nil),
	}
}

// previewBlocks renders a proposed batch with its create and cancel buttons.
// Every task is listed; task lines are packed into as few sections as fit,
// and descriptions are dropped when the batch is too large to show them.
func previewBlocks(out batch.Outcome, trackerName string) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(truncateForSlack(out.Message, maxSectionText)), nil, nil),
		slack.NewDividerBlock(),
	}

	budget := maxBlocks - previewChrome
	sections := packSections(previewLines(out.Tasks, true), maxSectionText)
	if len(sections) > budget {
		sections = packSections(previewLines(out.Tasks, false), maxSectionText)
	}
	var hidden int
	if len(sections) > budget {
		for _, sec := range sections[budget:] {
			hidden += sec.lines
		}
		sections = sections[:budget]
	}
	for _, sec := range sections {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn(sec.text), nil, nil))
	}

	footer := fmt.Sprintf("Review the tasks above. Click 'Create All Tasks' to create them in %s or 'Cancel'.", trackerName)
	if hidden > 0 {
		footer = fmt.Sprintf("…and %d more. ", hidden) + footer
	}
	blocks = append(blocks, slack.NewContextBlock("", mrkdwn(footer)))

	value := out.Token.String()
	createBtn := slack.NewButtonBlockElement(ActionCreateAll, value, plain("✅ Create All Tasks")).
		WithStyle(slack.StylePrimary)
	cancelBtn := slack.NewButtonBlockElement(ActionCancelAll, value, plain("❌ Cancel")).
		WithStyle(slack.StyleDanger)
	blocks = append(blocks, slack.NewActionBlock("", createBtn, cancelBtn))
	return blocks
}

func previewLines(tasks []types.ProposedTask, withDescriptions bool) []string {
	lines := make([]string, len(tasks))
	for i, task := range tasks {
		lines[i] = taskPreviewLine(i+1, task, withDescriptions)
	}
	return lines
}

// taskPreviewLine renders one task. Title and description are capped so a
// single line always fits in a section.
func taskPreviewLine(n int, task types.ProposedTask, withDescription bool) string {
	line := fmt.Sprintf("*%d. %s* (Priority: %s, State: %s)",
		n, escapeMrkdwn(truncateForSlack(task.Title, maxTitleLen)), task.Priority, task.State)
	if !withDescription {
		return line
	}
	if desc := strings.TrimSpace(task.Description); desc != "" {
		line += "\n" + escapeMrkdwn(truncateForSlack(desc, maxDescriptionLen))
	}
	return line
}

type section struct {
	text  string
	lines int
}

// packSections joins lines into section texts of at most limit bytes.
func packSections(lines []string, limit int) []section {
	const sep = "\n\n"
	var (
		out []section
		cur strings.Builder
		n   int
	)
	for _, line := range lines {
		line = truncateForSlack(line, limit)
		if n > 0 && cur.Len()+len(sep)+len(line) > limit {
			out = append(out, section{text: cur.String(), lines: n})
			cur.Reset()
			n = 0
		}
		if n > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(line)
		n++
	}
	if n > 0 {
		out = append(out, section{text: cur.String(), lines: n})
	}
	return out
}

// issueLink renders a created issue as "<url|IDENT title>". Linear URLs are
// linked without their title slug.
func issueLink(issue types.CreatedIssue) string {
	ident := issue.Identifier
	if ident == "" {
		ident = linear.ExtractLinearIdentifier(issue.URL)
	}
	label := strings.TrimSpace(ident + " " + truncateForSlack(issue.Title, maxTitleLen))
	label = strings.ReplaceAll(escapeMrkdwn(label), "|", "¦")
	if issue.URL == "" {
		return label
	}
	target := issue.URL
	if canonical, ok := linear.CanonicalizeLinearExternalRef(issue.URL); ok {
		target = canonical
	}
	return "<" + target + "|" + label + ">"
}

// headline is the first line of an outcome message; the rest is the
// plain-text issue listing that the blocks render as links instead.
func headline(message string) string {
	first, _, _ := strings.Cut(message, "\n")
	return first
}

// resultBlocks renders a create-all or undo outcome, with an undo button when
// the outcome offers one.
func resultBlocks(out batch.Outcome) []slack.Block {
	var sb strings.Builder
	sb.WriteString(headline(out.Message))
	for _, issue := range out.Created {
		sb.WriteString("\n• ")
		sb.WriteString(issueLink(issue))
	}
	for _, r := range out.Results {
		if r.Err != nil {
			sb.WriteString("\n✗ ")
			sb.WriteString(escapeMrkdwn(truncateForSlack(r.Task.Title, maxTitleLen)))
		}
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(truncateForSlack(sb.String(), maxSectionText)), nil, nil),
	}
	if out.Undo != nil {
		undoBtn := slack.NewButtonBlockElement(ActionUndo, "undo", plain(out.Undo.Label())).
			WithStyle(slack.StyleDanger)
		blocks = append(blocks, slack.NewActionBlock("", undoBtn))
	}
	return blocks
}

// truncateForSlack truncates a string to maxLen, adding "..." if truncated.
func truncateForSlack(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
