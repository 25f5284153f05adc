package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/neoclaw-ai/toolloop/internal/config"
	"github.com/neoclaw-ai/toolloop/internal/logging"
)

// Client is the transport for one provider profile. The adapter is selected once, at construction.
type Client struct {
	cfg        config.ProviderConfig
	adapter    Adapter
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// New validates cfg and builds a Client for its request format.
func New(cfg config.ProviderConfig, opts ...Option) (*Client, error) {
	cfg = cfg.WithPreset()
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	adapter, err := AdapterFor(cfg.RequestFormat)
	if err != nil {
		return nil, err
	}
	c := &Client{
		cfg:        cfg,
		adapter:    adapter,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Format reports the wire dialect this client speaks.
func (c *Client) Format() config.RequestFormat {
	return c.adapter.Format()
}

// Chat builds the vendor request, POSTs it, and normalizes the reply.
func (c *Client) Chat(ctx context.Context, transcript []Message, tools []ToolDefinition) (*Response, error) {
	req, err := c.adapter.BuildRequest(transcript, tools, c.cfg)
	if err != nil {
		return nil, err
	}
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	body, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.adapter.ParseResponse(body)
	if err != nil {
		return nil, err
	}
	logging.Logger().Debug(
		"provider response",
		"format", c.adapter.Format(),
		"tool_call_count", len(resp.ToolCalls),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp, nil
}

func (c *Client) send(ctx context.Context, req *HTTPRequest) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.adapter.Format(), err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.adapter.Format(), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.adapter.Format(), err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &TransportError{
			Status: httpResp.StatusCode,
			Body:   strings.TrimSpace(string(respBody)),
		}
	}
	return respBody, nil
}
