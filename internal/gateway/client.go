// Package gateway implements the domain.GatewayClient port against the
// acquiring gateway's direct API: one urlencoded form POST per request, one
// urlencoded field set back.
package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopkit/shopkit-payments/internal/domain"
)

// Client talks to the gateway's direct API endpoint.
type Client struct {
	directURL    string
	signatureKey string
	httpClient   *http.Client
}

// NewClient creates a gateway client. signatureKey may be empty; when set,
// every request carries a SHA-512 signature over the encoded body.
func NewClient(directURL, signatureKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		directURL:    directURL,
		signatureKey: signatureKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DirectRequest submits one field set and decodes the response field set.
// Transport failures, non-200 statuses, and responses without a responseCode
// all surface as domain.ErrGateway; the caller never retries a SALE.
func (c *Client) DirectRequest(ctx context.Context, fields map[string]string) (domain.ResponseFields, error) {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	body := values.Encode()
	if c.signatureKey != "" {
		body += "&signature=" + sign(body, c.signatureKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.directURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status %d: %s", domain.ErrGateway, resp.StatusCode, string(raw))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrGateway, err)
	}

	parsed, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed response body: %v", domain.ErrGateway, err)
	}

	out := make(domain.ResponseFields, len(parsed))
	for k, vs := range parsed {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	if out.Code() == "" {
		return nil, fmt.Errorf("%w: response missing responseCode", domain.ErrGateway)
	}
	return out, nil
}

// sign computes the hex SHA-512 of the encoded body concatenated with the
// merchant signature key.
func sign(body, key string) string {
	sum := sha512.Sum512([]byte(body + key))
	return hex.EncodeToString(sum[:])
}
