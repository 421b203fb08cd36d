package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 1 << 20
)

// ErrorPaths names where a provider puts its error code and message.
type ErrorPaths struct {
	Code    string
	Message string
}

// Transport performs provider REST calls and turns non-2xx answers into
// GatewayErrors. It never retries.
type Transport struct {
	provider string
	client   *http.Client
	baseURL  string
	decorate func(*http.Request)
	errPaths ErrorPaths
}

type TransportParams struct {
	Provider string
	Client   *http.Client
	BaseURL  string
	// Decorate adds auth and version headers to every request.
	Decorate   func(*http.Request)
	ErrorPaths ErrorPaths
}

func NewTransport(params TransportParams) *Transport {
	client := params.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Transport{
		provider: params.Provider,
		client:   client,
		baseURL:  strings.TrimRight(params.BaseURL, "/"),
		decorate: params.Decorate,
		errPaths: params.ErrorPaths,
	}
}

// JSON sends body (nil for none) as JSON and returns the raw response.
func (t *Transport) JSON(ctx context.Context, method, path string, body any, header http.Header) ([]byte, error) {
	raw, _, err := t.JSONStatus(ctx, method, path, body, header)
	return raw, err
}

// JSONStatus is JSON that also reports the 2xx status, for providers that
// signal "created" versus "already existed" through it.
func (t *Transport) JSONStatus(ctx context.Context, method, path string, body any, header http.Header) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, &GatewayError{Gateway: t.provider, Code: CodeInvalidRequest, Message: "encode request", cause: err}
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, 0, &GatewayError{Gateway: t.provider, Code: CodeInvalidRequest, Message: "build request", cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return t.do(req)
}

// Form posts url-encoded values to an absolute or base-relative URL.
func (t *Transport) Form(ctx context.Context, target string, form url.Values) ([]byte, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = t.baseURL + target
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &GatewayError{Gateway: t.provider, Code: CodeInvalidRequest, Message: "build request", cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	raw, _, err := t.do(req)
	return raw, err
}

func (t *Transport) do(req *http.Request) ([]byte, int, error) {
	if t.decorate != nil {
		t.decorate(req)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, &GatewayError{Gateway: t.provider, Code: CodeNetwork, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, &GatewayError{Gateway: t.provider, Code: CodeNetwork, Message: "read response", StatusCode: resp.StatusCode, cause: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, resp.StatusCode, nil
	}
	return nil, resp.StatusCode, t.providerError(resp.StatusCode, raw)
}

func (t *Transport) providerError(status int, raw []byte) *GatewayError {
	gwErr := &GatewayError{
		Gateway:    t.provider,
		Code:       CodeProviderUnknown,
		Message:    fmt.Sprintf("unexpected status %d", status),
		StatusCode: status,
	}
	if !gjson.ValidBytes(raw) {
		return gwErr
	}
	gwErr.Raw = json.RawMessage(raw)
	if t.errPaths.Code != "" {
		if code := gjson.GetBytes(raw, t.errPaths.Code).String(); code != "" {
			gwErr.Code = code
		}
	}
	if t.errPaths.Message != "" {
		if msg := gjson.GetBytes(raw, t.errPaths.Message).String(); msg != "" {
			gwErr.Message = msg
		}
	}
	return gwErr
}

// BadResponse reports a 2xx answer we could not interpret.
func (t *Transport) BadResponse(raw []byte, message string) *GatewayError {
	gwErr := &GatewayError{Gateway: t.provider, Code: CodeBadResponse, Message: message}
	if gjson.ValidBytes(raw) {
		gwErr.Raw = json.RawMessage(raw)
	}
	return gwErr
}
