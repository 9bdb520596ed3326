// Package ipaddr resolves the caller's public address for login audit.
package ipaddr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/omsdash/omsctl/internal/logging"
)

// Unknown is returned whenever the address cannot be determined.
const Unknown = "Unknown"

// Resolver looks up the public address through an ipify-compatible service.
type Resolver struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// New creates a Resolver for url. A nil client uses http.DefaultClient.
func New(url string, hc *http.Client, logger *slog.Logger) *Resolver {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Resolver{
		url:    strings.TrimSpace(url),
		http:   hc,
		logger: logging.OrDefault(logger).With("component", "ipaddr"),
	}
}

// Lookup returns the public address or Unknown. It never fails.
func (r *Resolver) Lookup(ctx context.Context) string {
	ip, err := r.lookup(ctx)
	if err != nil {
		r.logger.Debug("ip lookup failed", "error", err)
		return Unknown
	}
	return ip
}

func (r *Resolver) lookup(ctx context.Context) (string, error) {
	if r.url == "" {
		return "", fmt.Errorf("lookup url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode lookup response: %w", err)
	}
	if strings.TrimSpace(body.IP) == "" {
		return "", fmt.Errorf("empty address in lookup response")
	}
	return strings.TrimSpace(body.IP), nil
}
