package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"clipnote/internal/domain"
)

const (
	openAIDefaultTimeout = 60 * time.Second

	summaryMaxTokens   = 500
	oneLineMaxTokens   = 50
	keyPointsMaxTokens = 200
	answerMaxTokens    = 1000

	maxKeyPoints = 5
)

var numberedPrefix = regexp.MustCompile(`^\d+[.)]\s*`)

// OpenAIOptions configures the OpenAI-compatible summarization client.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	SummaryModel string
	ChatModel    string
	Temperature  float64
	HTTPClient   *http.Client
}

// OpenAIClient implements Client against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIClient struct {
	apiKey       string
	baseURL      string
	summaryModel string
	chatModel    string
	temperature  float64
	client       *http.Client
}

// NewOpenAIClient builds a client; a missing API key is allowed at
// construction time and surfaces as ErrMissingAPIKey on first use so
// the rest of the service can degrade gracefully.
func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	summaryModel := strings.TrimSpace(opts.SummaryModel)
	if summaryModel == "" {
		summaryModel = "gpt-4o"
	}
	chatModel := strings.TrimSpace(opts.ChatModel)
	if chatModel == "" {
		chatModel = summaryModel
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = 0.3
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIClient{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		summaryModel: summaryModel,
		chatModel:    chatModel,
		temperature:  temperature,
		client:       client,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	// Exactly one of the two token caps is set; some compatible
	// endpoints only accept the newer parameter name.
	MaxTokens       int `json:"max_tokens,omitempty"`
	MaxOutputTokens int `json:"max_output_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize runs the three completion calls for one language in parallel
// and assembles the summary triple.
func (c *OpenAIClient) Summarize(ctx context.Context, src Source, lang domain.Language) (*Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("summarize: %w", domain.ErrMissingAPIKey)
	}
	if !lang.Valid() {
		return nil, domain.ErrUnsupportedLanguage
	}

	var summary, oneLine, keyPointsText string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = c.chatCompletion(gctx, c.summaryModel, summarySystemPrompt(lang), summaryPrompt(src, lang), summaryMaxTokens, c.temperature)
		return err
	})
	g.Go(func() error {
		var err error
		oneLine, err = c.chatCompletion(gctx, c.summaryModel, oneLineSystemPrompt(lang), oneLinePrompt(src, lang), oneLineMaxTokens, c.temperature)
		return err
	})
	g.Go(func() error {
		var err error
		keyPointsText, err = c.chatCompletion(gctx, c.summaryModel, keyPointsSystemPrompt(lang), keyPointsPrompt(src, lang), keyPointsMaxTokens, c.temperature)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		Summary:        summary,
		OneLineSummary: oneLine,
		KeyPoints:      parseKeyPoints(keyPointsText),
	}, nil
}

// Answer responds to a question grounded in the given context text.
func (c *OpenAIClient) Answer(ctx context.Context, contextText, question string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("answer: %w", domain.ErrMissingAPIKey)
	}
	temperature := 0.7
	if strings.Contains(c.chatModel, "gpt-5") {
		// gpt-5 models reject any temperature other than the default.
		temperature = 1
	}
	return c.chatCompletion(ctx, c.chatModel, answerSystemPrompt, answerPrompt(contextText, question), answerMaxTokens, temperature)
}

func (c *OpenAIClient) chatCompletion(ctx context.Context, model, system, user string, maxTokens int, temperature float64) (string, error) {
	payload := chatRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	text, err := c.send(ctx, payload)
	if err != nil && isTokenParamRejection(err) {
		// Compatibility shim for endpoints that renamed the cap.
		payload.MaxTokens = 0
		payload.MaxOutputTokens = maxTokens
		text, err = c.send(ctx, payload)
	}
	return text, err
}

func (c *OpenAIClient) send(ctx context.Context, payload chatRequest) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: status %d", domain.ErrMissingAPIKey, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrProviderFailure, resp.StatusCode, msg)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrProviderFailure, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrProviderFailure)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrProviderFailure)
	}
	return text, nil
}

// parseKeyPoints turns a numbered or bulleted list completion into at
// most five plain key points.
func parseKeyPoints(text string) []string {
	points := make([]string, 0, maxKeyPoints)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = numberedPrefix.ReplaceAllString(line, "")
		line = strings.TrimLeft(line, "-*•")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		points = append(points, line)
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}

func isTokenParamRejection(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "max_output_tokens") ||
		strings.Contains(msg, "unrecognized") ||
		strings.Contains(msg, "unknown field") ||
		strings.Contains(msg, "unsupported parameter")
}
