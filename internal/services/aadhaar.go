package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Shared client for all outbound gateway calls.
var httpClient = &http.Client{Timeout: 15 * time.Second}

// IdentityRecord is the transient result of an Aadhaar lookup. It lives in
// memory until OTP confirmation maps it into the profile row; it is never
// stored as-is.
type IdentityRecord struct {
	AadhaarNumber string `json:"aadharNumber"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	DOB           string `json:"dob"`
	Address       string `json:"address"`
	Gender        string `json:"gender"`
	Phone         string `json:"phone"`
	Pincode       string `json:"pincode"`
	Verified      bool   `json:"verified"`
}

// LookupError carries a failure reported by the identity service itself, as
// opposed to a transport failure.
type LookupError struct {
	Message string
}

func (e *LookupError) Error() string {
	return e.Message
}

type aadhaarRequest struct {
	AadharNo string `json:"aadhar_no"`
}

type aadhaarResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	UserDetails struct {
		ID       string `json:"id"`
		AadharNo string `json:"aadhar_no"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		DOB      string `json:"dob"`
		Address  string `json:"address"`
		Gender   string `json:"gender"`
		Phone    string `json:"phone"`
		Pincode  string `json:"pincode"`
	} `json:"user_details"`
}

// AadhaarClient talks to the external identity-lookup endpoint.
type AadhaarClient struct {
	baseURL string
	client  *http.Client
}

// NewAadhaarClient constructs an AadhaarClient.
func NewAadhaarClient(baseURL string) *AadhaarClient {
	return &AadhaarClient{baseURL: baseURL, client: httpClient}
}

// Lookup fetches the identity record for a validated Aadhaar number. A
// service-reported failure comes back as *LookupError; anything else is a
// transport problem.
func (c *AadhaarClient) Lookup(ctx context.Context, aadhaarNo string) (*IdentityRecord, error) {
	payload, err := json.Marshal(aadhaarRequest{AadharNo: aadhaarNo})
	if err != nil {
		return nil, fmt.Errorf("marshal lookup payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var decoded aadhaarResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}

	if !decoded.Success {
		message := decoded.Message
		if message == "" {
			message = "Failed to fetch Aadhaar details"
		}
		return nil, &LookupError{Message: message}
	}

	details := decoded.UserDetails
	return &IdentityRecord{
		AadhaarNumber: details.AadharNo,
		Name:          details.Name,
		Email:         details.Email,
		DOB:           details.DOB,
		Address:       details.Address,
		Gender:        details.Gender,
		Phone:         details.Phone,
		Pincode:       details.Pincode,
		Verified:      true,
	}, nil
}
