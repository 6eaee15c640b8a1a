package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/openrouter-tgbot-go/internal/config"
	"github.com/openrouter-tgbot-go/internal/models"
	"github.com/openrouter-tgbot-go/internal/outcome"
)

// Service represents the completion client interface
type Service interface {
	Complete(ctx context.Context, messages []models.Message, modelID string, temperature float64) (string, error)
}

// Client calls the OpenRouter chat-completion endpoint. Exactly one request
// per call; retrying is the caller's decision.
type Client struct {
	cfg        *config.OpenRouterConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new completion client
func NewClient(cfg *config.OpenRouterConfig, logger *logrus.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c.cfg.APIKey != ""
}

// Complete sends the assembled messages and returns the first completion's
// content. Failures are classified: transport and non-2xx statuses are
// transient, undecodable or incomplete payloads are format errors.
func (c *Client) Complete(ctx context.Context, messages []models.Message, modelID string, temperature float64) (string, error) {
	if !c.HasCredential() {
		return "", outcome.ErrConfig
	}

	reqBody := map[string]interface{}{
		"model":       modelID,
		"messages":    messages,
		"temperature": temperature,
		"max_tokens":  c.cfg.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(c.cfg.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	c.logger.WithFields(logrus.Fields{
		"model":    modelID,
		"messages": len(messages),
	}).Debug("Sending completion request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("model", modelID).Error("Completion request failed")
		return "", outcome.Transient(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", outcome.Transient(err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
			"model":  modelID,
		}).Error("Completion request rejected")
		return "", outcome.Transient(fmt.Errorf("status %d", resp.StatusCode))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.WithError(err).Error("Completion response is not valid JSON")
		return "", outcome.BadFormat(err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		c.logger.WithField("model", modelID).Error("Completion response has no content")
		return "", outcome.BadFormat(fmt.Errorf("no completion choices"))
	}

	return result.Choices[0].Message.Content, nil
}
