// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/georelay/georelay/spatial"
	"github.com/georelay/georelay/utils/httputils"
)

// DefaultNominatimURL is the public OSM Nominatim endpoint. Its usage
// policy caps clients at one request per second, which is what the rate
// limiter defaults protect.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

const maxErrorBodyBytes = 4 * 1024

// NominatimOptions configuration for the Nominatim client.
type NominatimOptions struct {
	// BaseURL overrides the public Nominatim endpoint
	BaseURL string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

// NominatimGeocoder resolves addresses against a Nominatim instance.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a Nominatim client with the provided options.
func NewNominatimGeocoder(options *NominatimOptions) *NominatimGeocoder {
	if options == nil {
		options = &NominatimOptions{}
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		MaxConnsPerHost:       2,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = "georelay/unknown"
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Transport: loggingTransport,
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
	}

	return &NominatimGeocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: headerTransport,
			Timeout:   10 * time.Second,
		},
	}
}

// nominatimResponse is the subset of the jsonv2 reverse response we use.
// The address object's keys match AddressRecord's JSON tags, so it decodes
// straight into the record. Nominatim reports failures such as unresolvable
// ocean coordinates with a 200 status and an error field.
type nominatimResponse struct {
	Error   string        `json:"error"`
	Address AddressRecord `json:"address"`
}

// Reverse looks up the address of a cell center.
func (g *NominatimGeocoder) Reverse(ctx context.Context, center spatial.Point, language string) (*AddressRecord, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", formatCoordinate(center.Lat))
	params.Set("lon", formatCoordinate(center.Lon))
	params.Set("addressdetails", "1")
	params.Set("accept-language", language)

	reqURL := g.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Type: ErrorTypeUpstreamFailure, Message: "building upstream request", Err: err}
	}

	req.Header.Set("Accept-Language", language)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Type: ErrorTypeUpstreamFailure, Message: "upstream request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return nil, &Error{
			Type:    ErrorTypeUpstreamFailure,
			Message: fmt.Sprintf("nominatim returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var nresp nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&nresp); err != nil {
		return nil, &Error{Type: ErrorTypeUpstreamFailure, Message: "decoding upstream response", Err: err}
	}

	if nresp.Error != "" {
		return nil, &Error{Type: ErrorTypeUpstreamFailure, Message: fmt.Sprintf("nominatim error: %s", nresp.Error)}
	}

	record := nresp.Address

	return &record, nil
}

// formatCoordinate renders a cell-center axis with fixed decimals so one
// cell always produces the same request URL.
func formatCoordinate(v float64) string {
	return fmt.Sprintf("%.5f", v)
}
