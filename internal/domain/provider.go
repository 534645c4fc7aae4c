package domain

import (
	"context"
	"net/http"
)

// HTTPClient is the http surface provider clients depend on, satisfied
// by *http.Client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProviderPhone is a phone number registered with the provider account
type ProviderPhone struct {
	ID            string `json:"id"`
	DisplayNumber string `json:"display_phone_number"`
	QualityRating string `json:"quality_rating,omitempty"`
}

// ProviderTemplate is a message template approved on the provider account
type ProviderTemplate struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Status   string `json:"status"`
	Category string `json:"category,omitempty"`
}

//go:generate mockgen -destination mocks/mock_provider_client.go -package mocks github.com/waplane/waplane/internal/domain ProviderClient

// ProviderClient is the WhatsApp Business (Meta Cloud API) surface the
// core depends on. SendMessage returns the provider-assigned wamid; any
// failure, including a response without a message id, surfaces as an
// error which the sender converts to a FAILED delivery status.
type ProviderClient interface {
	SendMessage(ctx context.Context, phoneNumberID string, payload SendPayload) (string, error)
	FetchPhoneNumbers(ctx context.Context) ([]ProviderPhone, error)
	FetchTemplates(ctx context.Context) ([]ProviderTemplate, error)
}
