package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// ErrNoChatBackend is returned when neither Gemini nor OpenAI is configured.
var ErrNoChatBackend = errors.New("no chat backend configured")

const (
	DefaultGeminiModel   = "gemini-1.5-flash"
	DefaultOpenAIModel   = "gpt-3.5-turbo"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	NoChatBackendMessage = "⚠️ No API key configured. Please set either OPENAI_API_KEY or GEMINI_API_KEY in .env file."

	chatSystemPrompt = `You are Nexa AI, a friendly chatbot specialized in IPO analysis.
Please provide your response in a structured format with clear sections when appropriate.
For IPO-related queries, organize information in sections like:
- Company Overview
- Financial Highlights
- Risk Factors
- Recommendation`
)

// ChatBackend answers a single user message.
type ChatBackend interface {
	Name() string
	Complete(ctx context.Context, message string) (string, error)
}

// GeminiBackend sends the prompt to the Gemini API.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiBackend{client: client, model: model}, nil
}

func (g *GeminiBackend) Name() string { return "gemini" }

// Complete folds the system prompt into the request text
func (g *GeminiBackend) Complete(ctx context.Context, message string) (string, error) {
	prompt := chatSystemPrompt + "\n\nRespond to the following query: " + message
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}
	return resp.Text(), nil
}

// OpenAIBackend calls the Chat Completions endpoint.
type OpenAIBackend struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAIBackend(apiKey, baseURL, model string, client *http.Client) *OpenAIBackend {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &OpenAIBackend{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

func (o *OpenAIBackend) Name() string { return "openai" }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (o *OpenAIBackend) Complete(ctx context.Context, message string) (string, error) {
	data, err := json.Marshal(openAIChatRequest{
		Model: o.model,
		Messages: []openAIMessage{
			{Role: "system", Content: chatSystemPrompt},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}

	var result openAIChatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &shared.HTTPStatusError{StatusCode: resp.StatusCode, Attempt: 1}
		}
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error != nil && result.Error.Message != "" {
			return "", fmt.Errorf("openai returned %d: %s", resp.StatusCode, result.Error.Message)
		}
		return "", &shared.HTTPStatusError{StatusCode: resp.StatusCode, Attempt: 1}
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// ChatService proxies free-text questions to the first configured backend.
type ChatService struct {
	backend        ChatBackend
	serviceMetrics *shared.ServiceMetrics
}

// NewChatService uses gemini when non-nil, then openai. Both may be nil.
func NewChatService(gemini, openai ChatBackend) *ChatService {
	service := &ChatService{serviceMetrics: shared.NewServiceMetrics("Chat_Service")}
	switch {
	case gemini != nil:
		service.backend = gemini
	case openai != nil:
		service.backend = openai
	}

	backend := "none"
	if service.backend != nil {
		backend = service.backend.Name()
	}
	logrus.WithFields(logrus.Fields{
		"component": "ChatService",
		"backend":   backend,
	}).Info("Chat service initialized")

	return service
}

// Backend names the active backend, or "" when none is configured
func (s *ChatService) Backend() string {
	if s.backend == nil {
		return ""
	}
	return s.backend.Name()
}

// Ask returns the trimmed model answer
func (s *ChatService) Ask(ctx context.Context, message string) (string, error) {
	if s.backend == nil {
		return "", ErrNoChatBackend
	}

	startTime := time.Now()
	answer, err := s.backend.Complete(ctx, message)
	s.serviceMetrics.RecordRequest(err == nil, time.Since(startTime))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Respond always produces text for the user: the answer, the missing
// configuration notice or the backend error.
func (s *ChatService) Respond(ctx context.Context, message string) string {
	answer, err := s.Ask(ctx, message)
	switch {
	case errors.Is(err, ErrNoChatBackend):
		s.serviceMetrics.IncrementCounter("unconfigured_replies")
		return NoChatBackendMessage
	case err != nil:
		s.serviceMetrics.IncrementCounter("error_replies")
		logrus.WithError(err).WithFields(logrus.Fields{
			"component": "ChatService",
			"backend":   s.Backend(),
		}).Warn("Chat backend request failed")
		return "⚠️ Error: " + err.Error()
	}
	return answer
}

// GetServiceMetrics returns backend call metrics
func (s *ChatService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}
