package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type geocodeResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// GeocodeClient resolves coordinates to a human-readable place string via a
// Nominatim-compatible reverse-geocoding endpoint.
type GeocodeClient struct {
	baseURL string
	client  *http.Client
}

// NewGeocodeClient constructs a GeocodeClient.
func NewGeocodeClient(baseURL string) *GeocodeClient {
	return &GeocodeClient{baseURL: strings.TrimRight(baseURL, "/"), client: httpClient}
}

// ReverseGeocode returns "city, region, country" for the coordinates,
// skipping components the service does not know.
func (c *GeocodeClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode service returned status %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}

	city := decoded.Address.City
	if city == "" {
		city = decoded.Address.Town
	}
	if city == "" {
		city = decoded.Address.Village
	}

	parts := make([]string, 0, 3)
	for _, part := range []string{city, decoded.Address.State, decoded.Address.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("geocode service returned no address")
	}

	return strings.Join(parts, ", "), nil
}
