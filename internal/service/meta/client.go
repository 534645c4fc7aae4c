package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/waplane/waplane/config"
	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/pkg/logger"
)

// Client implements domain.ProviderClient against the Meta Cloud API
type Client struct {
	httpClient  domain.HTTPClient
	baseURL     string
	apiVersion  string
	accessToken string
	wabaID      string
	logger      logger.Logger
}

func NewClient(httpClient domain.HTTPClient, cfg *config.MetaConfig, logger logger.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     cfg.BaseURL,
		apiVersion:  cfg.APIVersion,
		accessToken: cfg.AccessToken,
		wabaID:      cfg.WabaID,
		logger:      logger,
	}
}

// SendMessage posts the payload to the phone number's /messages endpoint
// and returns the provider-assigned wamid. A 2xx response that carries
// no message id is treated as a failure.
func (c *Client) SendMessage(ctx context.Context, phoneNumberID string, payload domain.SendPayload) (string, error) {
	body, err := payload.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(fmt.Sprintf("Failed to execute send request: %v", err))
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := gjson.GetBytes(respBody, "error.message").String()
		if message == "" {
			message = string(respBody)
		}
		c.logger.WithField("status_code", resp.StatusCode).
			Error(fmt.Sprintf("Cloud API rejected message: %s", message))
		return "", &domain.ProviderError{
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	wamid := gjson.GetBytes(respBody, "messages.0.id").String()
	if wamid == "" {
		return "", &domain.ProviderError{
			StatusCode: resp.StatusCode,
			Message:    "response carries no message id",
		}
	}
	return wamid, nil
}

// FetchPhoneNumbers lists the phone numbers registered on the business account
func (c *Client) FetchPhoneNumbers(ctx context.Context) ([]domain.ProviderPhone, error) {
	apiURL := fmt.Sprintf("%s/%s/%s/phone_numbers", c.baseURL, c.apiVersion, c.wabaID)

	var response struct {
		Data []domain.ProviderPhone `json:"data"`
	}
	if err := c.get(ctx, apiURL, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch phone numbers: %w", err)
	}
	return response.Data, nil
}

// FetchTemplates lists the message templates on the business account
func (c *Client) FetchTemplates(ctx context.Context) ([]domain.ProviderTemplate, error) {
	apiURL := fmt.Sprintf("%s/%s/%s/message_templates", c.baseURL, c.apiVersion, c.wabaID)

	var response struct {
		Data []domain.ProviderTemplate `json:"data"`
	}
	if err := c.get(ctx, apiURL, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch templates: %w", err)
	}
	return response.Data, nil
}

func (c *Client) get(ctx context.Context, apiURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		message := gjson.GetBytes(body, "error.message").String()
		if message == "" {
			message = string(body)
		}
		return &domain.ProviderError{
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
