// Package ipa is a minimal client for the certificate authority's JSON-RPC
// API. The gateway treats it as an opaque collaborator: two calls, no
// retries, and an error type of its own so the HTTP layer can map server
// codes without inspecting transport details.
package ipa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ErrCodeCertNotFound is the server code returned when a certificate serial
// number does not exist.
const ErrCodeCertNotFound = 4301

// Error is a failure reported by the RPC server.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ipa: %s (code %d)", e.Message, e.Code)
}

// Cert is the untyped certificate payload the server returns. The gateway
// does not interpret it beyond serialization.
type Cert map[string]any

// Client talks to one IPA server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CertShow fetches a certificate by serial number.
func (c *Client) CertShow(ctx context.Context, serialNumber int) (Cert, error) {
	return c.call(ctx, "cert_show", []any{serialNumber}, map[string]any{"all": true})
}

// CertRequest submits a CSR for signing on behalf of a user.
func (c *Client) CertRequest(ctx context.Context, csr, user string) (Cert, error) {
	return c.call(ctx, "cert_request", []any{csr}, map[string]any{"principal": user})
}

type rpcRequest struct {
	Method string `json:"method"`
	Params [2]any `json:"params"`
}

type rpcResponse struct {
	Result *struct {
		Result Cert `json:"result"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, args []any, options map[string]any) (Cert, error) {
	body, err := json.Marshal(rpcRequest{
		Method: method,
		Params: [2]any{args, options},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ipa/session/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.baseURL+"/ipa")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipa: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ipa: %s: decode response: %w", method, err)
	}
	if out.Error != nil {
		return nil, &Error{Code: out.Error.Code, Message: out.Error.Message}
	}
	if out.Result == nil {
		return nil, fmt.Errorf("ipa: %s: empty response", method)
	}
	return out.Result.Result, nil
}
