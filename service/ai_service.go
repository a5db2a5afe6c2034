package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"magit/config"
	"magit/domain"
	"magit/logger"
)

var ErrAIDisabled = errors.New("ai service is not configured")

// AIService talks to an OpenAI-compatible chat completions endpoint.
type AIService struct {
	apiKey     string
	apiURL     string
	model      string
	enabled    bool
	httpClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewAIService(cfg config.LLMConfig) *AIService {
	return &AIService{
		apiKey:  cfg.APIKey,
		apiURL:  cfg.APIURL,
		model:   cfg.Model,
		enabled: cfg.Enabled(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (s *AIService) Enabled() bool {
	return s != nil && s.enabled
}

// Complete sends one system+user exchange and returns the first choice.
func (s *AIService) Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if !s.Enabled() {
		return "", ErrAIDisabled
	}

	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

const suggestionSystemPrompt = "Ты консультант сервиса недвижимости Magit в Ташкенте. " +
	"Дай одну короткую дружелюбную подсказку на русском языке, как уточнить или расширить поиск. " +
	"Не выдумывай объекты и цены."

// SuggestSearch produces a one-sentence hint for the search page. It never
// fails: without a model, or on error, a fixed hint is returned.
func (s *AIService) SuggestSearch(ctx context.Context, query string, filter domain.SearchFilter, found int, mode domain.SearchMode) string {
	if !s.Enabled() {
		return fallbackSuggestion(found, mode)
	}

	filterJSON, _ := json.Marshal(filter)
	prompt := fmt.Sprintf(
		"Запрос пользователя: %q\nРаспознанные фильтры: %s\nНайдено объектов: %d\nРежим: %s\n"+
			"Если режим relaxed, точных совпадений не было и показаны похожие варианты.",
		query, filterJSON, found, mode)

	text, err := s.Complete(ctx, suggestionSystemPrompt, prompt, 120)
	if err != nil || text == "" {
		logger.Warn().Err(err).Str("query", query).Msg("search suggestion fell back")
		return fallbackSuggestion(found, mode)
	}
	return text
}

func fallbackSuggestion(found int, mode domain.SearchMode) string {
	switch {
	case found == 0:
		return "Ничего не найдено. Попробуйте убрать часть условий или увеличить бюджет."
	case mode == domain.ModeRelaxed:
		return "Точных совпадений нет, поэтому мы подобрали похожие варианты. Попробуйте расширить бюджет или соседние районы."
	default:
		return fmt.Sprintf("Найдено объектов: %d. Уточните район или бюджет, чтобы сузить выбор.", found)
	}
}
