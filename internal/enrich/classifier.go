package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

const (
	MaxSuggestedTags = 5
	DefaultModel     = "gpt-4o-mini"

	// page text beyond this is not sent to the model
	maxPromptText = 4000
)

var ErrBadCompletion = errors.New("unusable completion")

// TextClassifier suggests tags and a category for page text.
type TextClassifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// NopClassifier suggests nothing. Used when no model is configured.
type NopClassifier struct{}

func (NopClassifier) Classify(context.Context, string) (domain.Classification, error) {
	return domain.Classification{}, nil
}

// LLMClassifier asks a chat model for a JSON classification.
type LLMClassifier struct {
	model llms.Model
}

func NewLLMClassifier(model llms.Model) *LLMClassifier {
	return &LLMClassifier{model: model}
}

// NewOpenAIClassifier builds a classifier on any OpenAI compatible endpoint.
func NewOpenAIClassifier(apiKey, baseURL, model string) (*LLMClassifier, error) {
	if model == "" {
		model = DefaultModel
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewLLMClassifier(llm), nil
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Classification{}, nil
	}
	text = truncateRunes(text, maxPromptText)

	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, classifyPrompt(text),
		llms.WithTemperature(0),
		llms.WithJSONMode(),
	)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify: %w", err)
	}
	return ParseClassification(out)
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func classifyPrompt(text string) string {
	return fmt.Sprintf(`Classify the web page below.
Answer with a single JSON object of the form {"tags": ["..."], "category": "..."}.
Use at most %d short lowercase tags.
The category must be one of: %s.

Page:
%s`, MaxSuggestedTags, strings.Join(domain.Categories, ", "), text)
}

// ParseClassification reads a model answer. Tags are normalized and capped,
// and a category outside domain.Categories is dropped.
func ParseClassification(raw string) (domain.Classification, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return domain.Classification{}, fmt.Errorf("%w: no json object", ErrBadCompletion)
	}

	var answer struct {
		Tags     []string `json:"tags"`
		Category string   `json:"category"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &answer); err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %v", ErrBadCompletion, err)
	}

	tags := domain.NormalizeTags(answer.Tags)
	if len(tags) > MaxSuggestedTags {
		tags = tags[:MaxSuggestedTags]
	}
	out := domain.Classification{Tags: tags}
	if cat := strings.ToLower(strings.TrimSpace(answer.Category)); domain.IsKnownCategory(cat) {
		out.Category = &cat
	}
	return out, nil
}
