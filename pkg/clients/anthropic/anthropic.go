package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-3-haiku-20240307"
	maxTokens  = 1024
)

const systemPrompt = `You are an experienced beekeeping advisor. The user is a hobbyist or
semi-professional beekeeper keeping a journal of apiaries, hives, inspections and harvests.
Answer their question with practical, season-aware advice. When an image of a frame, comb or
colony is attached, describe what you observe before advising. Be concise; use light markdown
(short paragraphs, dashes for lists). If the situation sounds like a disease outbreak that
requires authorities to be notified, say so explicitly.`

// Client defines the interface for the AI advice assistant.
type Client interface {
	Advise(ctx context.Context, req AdviceRequest) (string, error)
}

// AdviceRequest carries a text prompt and an optional inline image.
type AdviceRequest struct {
	Prompt         string `json:"prompt"`
	ImageBase64    string `json:"imageBase64,omitempty"`
	ImageMediaType string `json:"imageMediaType,omitempty"` // e.g. image/jpeg
}

type anthropicClient struct {
	httpClient *resty.Client
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string) Client {
	client := resty.New().
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Advise forwards the prompt (and optional image) and returns the free-text
// advice.
func (c *anthropicClient) Advise(ctx context.Context, req AdviceRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("prompt must not be empty")
	}

	content := make([]contentBlock, 0, 2)
	if req.ImageBase64 != "" {
		mediaType := req.ImageMediaType
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		content = append(content, contentBlock{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: mediaType,
				Data:      req.ImageBase64,
			},
		})
	}
	content = append(content, contentBlock{Type: "text", Text: req.Prompt})

	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: content}},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(apiURL)

	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	return strings.TrimSpace(respBody.Content[0].Text), nil
}
