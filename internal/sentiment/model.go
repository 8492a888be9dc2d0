package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"mindwell/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const scoringPrompt = `You are a sentiment scoring engine for a mental health companion.
Rate the emotional tone of the user's message as JSON with exactly two fields:
{"score": <float from -1.0 (very negative) to 1.0 (very positive)>, "label": "POSITIVE" | "NEGATIVE" | "NEUTRAL"}.
Respond with the JSON object only.`

// ModelScorer scores with a chat model and falls back to the lexicon when the
// model call fails or returns garbage.
type ModelScorer struct {
	chatModel model.ToolCallingChatModel
	fallback  Scorer
	timeout   time.Duration
}

// NewModelScorer builds a scorer over the configured chat-model provider.
func NewModelScorer(cfg *config.Config) (*ModelScorer, error) {
	provider := cfg.Sentiment.Provider
	provCfg, ok := cfg.Sentiment.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("sentiment provider %s not configured", provider)
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err == nil {
			chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
				Client: client,
				Model:  provCfg.Model,
			})
		}
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 200,
		})
	default:
		return nil, fmt.Errorf("invalid sentiment provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init sentiment model: %w", err)
	}

	return &ModelScorer{
		chatModel: chatModel,
		fallback:  NewLexiconScorer(),
		timeout:   10 * time.Second,
	}, nil
}

// Analyze asks the model for a score and degrades to the lexicon on any
// failure. It never returns an error to the caller.
func (s *ModelScorer) Analyze(ctx context.Context, text string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: scoringPrompt},
		{Role: schema.User, Content: text},
	})
	if err != nil {
		log.Printf("sentiment: model call failed, using lexicon: %v", err)
		return s.fallback.Analyze(ctx, text)
	}

	result, err := parseModelResult(msg.Content)
	if err != nil {
		log.Printf("sentiment: unparseable model output, using lexicon: %v", err)
		return s.fallback.Analyze(ctx, text)
	}
	return result, nil
}

func parseModelResult(content string) (Result, error) {
	// Models occasionally wrap the JSON in a code fence.
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			content = content[start : end+1]
		}
	}
	var parsed struct {
		Score float64 `json:"score"`
		Label string  `json:"label"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return Result{}, fmt.Errorf("decode model output: %w", err)
	}
	result := Result{Score: clamp(parsed.Score), Label: strings.ToUpper(parsed.Label)}
	switch result.Label {
	case "POSITIVE", "NEGATIVE", "NEUTRAL":
	default:
		result.Label = label(result.Score)
	}
	return result, nil
}

// NewScorer picks the scorer for the configuration: the chat-model scorer
// when a provider is set and constructible, the lexicon otherwise.
func NewScorer(cfg *config.Config) Scorer {
	if cfg == nil || cfg.Sentiment.Provider == "" {
		return NewLexiconScorer()
	}
	scorer, err := NewModelScorer(cfg)
	if err != nil {
		log.Printf("sentiment: %v, using lexicon scorer", err)
		return NewLexiconScorer()
	}
	return scorer
}
