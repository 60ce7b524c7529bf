// Package structure converts free-text task lines into proposed tasks using
// the Anthropic Messages API.
package structure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/taskdrop/taskdrop/internal/telemetry"
	"github.com/taskdrop/taskdrop/internal/types"
)

const (
	DefaultModel     = "claude-haiku-4-5"
	DefaultMaxTokens = 4096

	scopeName = "github.com/taskdrop/taskdrop/ai"
)

var (
	// ErrAPIKeyRequired is returned when no API key is configured.
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrMalformedResponse is returned when the model output is not a JSON
	// array of tasks.
	ErrMalformedResponse = errors.New("malformed structuring response")
)

// Config configures a Client.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// Client wraps the Anthropic API for task structuring.
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	prompt    *template.Template
}

// New creates a structuring client. Extra request options are applied after
// the defaults, so tests can point the client at a mock server.
func New(cfg Config, opts ...option.RequestOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: set ai.api_key or ANTHROPIC_API_KEY", ErrAPIKeyRequired)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	tmpl, err := template.New("structure").Funcs(promptFuncs).Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}

	aiMetricsOnce.Do(initAIMetrics)

	all := append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &Client{
		client:    anthropic.NewClient(all...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		prompt:    tmpl,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return string(c.model)
}

// Structure asks the model to turn lines into proposed tasks.
func (c *Client) Structure(ctx context.Context, lines []string) ([]types.ProposedTask, error) {
	prompt, err := c.RenderPrompt(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}
	text, err := c.call(ctx, prompt, len(lines))
	if err != nil {
		return nil, err
	}
	return ParseTasks(text)
}

// RenderPrompt renders the structuring prompt for lines.
func (c *Client) RenderPrompt(lines []string) (string, error) {
	var buf bytes.Buffer
	if err := c.prompt.Execute(&buf, promptData{Tasks: lines}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// aiMetrics holds lazily-initialized OTel instruments for Anthropic API calls.
var aiMetrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}

var aiMetricsOnce sync.Once

func initAIMetrics() {
	m := telemetry.Meter(scopeName)
	aiMetrics.inputTokens, _ = m.Int64Counter("taskdrop.ai.input_tokens",
		metric.WithDescription("Anthropic API input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.outputTokens, _ = m.Int64Counter("taskdrop.ai.output_tokens",
		metric.WithDescription("Anthropic API output tokens generated"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.duration, _ = m.Float64Histogram("taskdrop.ai.request.duration",
		metric.WithDescription("Anthropic API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}

func (c *Client) call(ctx context.Context, prompt string, lineCount int) (string, error) {
	ctx, span := telemetry.Tracer(scopeName).Start(ctx, "anthropic.messages.new")
	defer span.End()
	modelAttr := attribute.String("taskdrop.ai.model", string(c.model))
	span.SetAttributes(
		modelAttr,
		attribute.String("taskdrop.ai.operation", "structure"),
		attribute.Int("taskdrop.ai.lines", lineCount),
	)

	t0 := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	ms := float64(time.Since(t0).Milliseconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	aiMetrics.inputTokens.Add(ctx, message.Usage.InputTokens, metric.WithAttributes(modelAttr))
	aiMetrics.outputTokens.Add(ctx, message.Usage.OutputTokens, metric.WithAttributes(modelAttr))
	aiMetrics.duration.Record(ctx, ms, metric.WithAttributes(modelAttr))
	span.SetAttributes(
		attribute.Int64("taskdrop.ai.input_tokens", message.Usage.InputTokens),
		attribute.Int64("taskdrop.ai.output_tokens", message.Usage.OutputTokens),
	)

	if len(message.Content) == 0 {
		return "", fmt.Errorf("%w: no content blocks", ErrMalformedResponse)
	}
	content := message.Content[0]
	if content.Type != "text" {
		return "", fmt.Errorf("%w: not a text block (type=%s)", ErrMalformedResponse, content.Type)
	}
	return content.Text, nil
}

type rawTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	State       string `json:"state"`
}

// ParseTasks extracts the task array from model output. Code fences and
// surrounding prose are tolerated; every task needs a non-empty title.
// Priority and state are normalized to their enums.
func ParseTasks(text string) ([]types.ProposedTask, error) {
	body := extractJSONArray(text)
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON array found", ErrMalformedResponse)
	}

	var raw []rawTask
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	tasks := make([]types.ProposedTask, 0, len(raw))
	for i, r := range raw {
		task := types.ProposedTask{
			Title:       strings.TrimSpace(r.Title),
			Description: strings.TrimSpace(r.Description),
			Priority:    types.ParsePriority(r.Priority),
			State:       types.ParseWorkflowState(r.State),
		}
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrMalformedResponse, i+1, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// extractJSONArray strips markdown fences and returns the outermost
// bracketed span, or "" when there is none.
func extractJSONArray(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

type promptData struct {
	Tasks []string
}

var promptFuncs = template.FuncMap{
	"add1": func(i int) int { return i + 1 },
}

const promptTemplate = `Convert these tasks to a JSON array. For each task, create an object with:
- "title": Clear, actionable task title
- "description": Markdown-formatted description with TWO sections:
  1. **Goal:** Brief explanation of what needs to be accomplished
  2. **Autotask Analysis:** Suggestions for tools, frameworks, or strategies relevant to this task. Name specific tools, APIs, or approaches with a short note on when to use each.
- "priority": Importance for MVP development, one of "urgent", "high", "medium", "low"
- "state": Workflow state from context clues in the task. Use "Todo" by default, "Backlog" for future items, "In Progress" if the task mentions ongoing work, "Done" if the task is completed.

Tasks to convert:
{{range $i, $t := .Tasks}}{{add1 $i}}. {{$t}}
{{end}}
Example description:
**Goal:** Build a system that automates outbound sales outreach and follow-ups to increase lead conversion.

**Autotask Analysis:**
Explore tools like Clay for lead sourcing and enrichment, or Gong for analyzing sales conversations. For sequence automation, consider Apollo or Reply.io. Choose based on CRM integration needs and budget.

Respond with ONLY the JSON array, no prose and no code fences.`
