package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type smsRequest struct {
	Route   string `json:"route"`
	Message string `json:"message"`
	Numbers string `json:"numbers"`
}

type smsResponse struct {
	Return    bool   `json:"return"`
	RequestID string `json:"request_id"`
}

// SMSClient delivers text messages through the SMS gateway. The gateway's
// `return` flag is the sole success signal.
type SMSClient struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewSMSClient constructs an SMSClient. The API key comes from configuration,
// never from source.
func NewSMSClient(apiURL, apiKey string) *SMSClient {
	return &SMSClient{apiURL: apiURL, apiKey: apiKey, client: httpClient}
}

// Send dispatches one message to the given phone number.
func (c *SMSClient) Send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(smsRequest{
		Route:   "q",
		Message: message,
		Numbers: phone,
	})
	if err != nil {
		return fmt.Errorf("marshal SMS payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create SMS request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send SMS: %w", err)
	}
	defer resp.Body.Close()

	var decoded smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode SMS response: %w", err)
	}

	if !decoded.Return {
		return fmt.Errorf("SMS gateway rejected the message")
	}

	return nil
}
