package domain

import "strings"

// OutputFormat is the expected shape of a task's generated output.
type OutputFormat string

const (
	OutputText     OutputFormat = "text"
	OutputJSON     OutputFormat = "json"
	OutputCode     OutputFormat = "code"
	OutputMarkdown OutputFormat = "markdown"
)

// OutputFormats lists every format in picker order.
var OutputFormats = []OutputFormat{OutputText, OutputJSON, OutputCode, OutputMarkdown}

const DefaultOutputFormat = OutputText

func (f OutputFormat) Valid() bool {
	switch f {
	case OutputText, OutputJSON, OutputCode, OutputMarkdown:
		return true
	}
	return false
}

// ParseOutputFormat converts raw input into an OutputFormat.
func ParseOutputFormat(raw string) (OutputFormat, error) {
	f := OutputFormat(strings.TrimSpace(raw))
	if !f.Valid() {
		return "", ErrInvalidOutputFormat
	}
	return f, nil
}

// AIModels are the model ids a prompt may target.
var AIModels = []string{"gpt-4", "gpt-3.5-turbo", "claude-3", "gemini-pro", "llama-2"}

const DefaultAIModel = "gpt-4"

// ValidAIModel reports whether model is one of AIModels.
func ValidAIModel(model string) bool {
	for _, m := range AIModels {
		if m == model {
			return true
		}
	}
	return false
}

// Prompt is one AI instruction attached to a task.
type Prompt struct {
	ID           string       `json:"id"`
	Prompt       string       `json:"prompt"`
	AIModel      string       `json:"aiModel"`
	OutputFormat OutputFormat `json:"outputFormat"`
}

// NormalizePrompts fills blank ids, models and formats with defaults and
// rejects unknown models or formats. Repeated ids get a fresh one.
func NormalizePrompts(prompts []Prompt, newID func() string) ([]Prompt, error) {
	if len(prompts) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(prompts))
	out := make([]Prompt, 0, len(prompts))
	for _, p := range prompts {
		p.ID = strings.TrimSpace(p.ID)
		if _, dup := seen[p.ID]; p.ID == "" || dup {
			p.ID = newID()
		}
		seen[p.ID] = struct{}{}
		p.Prompt = strings.TrimSpace(p.Prompt)
		p.AIModel = strings.TrimSpace(p.AIModel)
		if p.AIModel == "" {
			p.AIModel = DefaultAIModel
		}
		if !ValidAIModel(p.AIModel) {
			return nil, ErrInvalidAIModel
		}
		if p.OutputFormat == "" {
			p.OutputFormat = DefaultOutputFormat
		}
		if !p.OutputFormat.Valid() {
			return nil, ErrInvalidOutputFormat
		}
		out = append(out, p)
	}
	return out, nil
}
