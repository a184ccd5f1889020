package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StayBridge/internal/conf"
	pkgerrors "StayBridge/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/net/proxy"
)

const gatewayService = "gateway"

// GatewayClient delivers one outbound guest message per call through the
// messaging gateway. A successful send returns the gateway's delivery id.
// Some deployments reach the gateway through an egress proxy, so the client
// supports socks5/http/https proxy URLs.
type GatewayClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *log.Helper
}

// sendRequest is the gateway wire format for an outbound message.
type sendRequest struct {
	Recipient string `json:"recipient"`
	Payload   string `json:"payload"`
}

// sendResponse is the gateway acknowledgment.
type sendResponse struct {
	DeliveryID string `json:"delivery_id"`
	Status     string `json:"status"`
}

// NewGatewayClient creates the messaging gateway client.
func NewGatewayClient(c *conf.Gateway, logger log.Logger) (*GatewayClient, error) {
	if c == nil || c.BaseURL == "" {
		return nil, fmt.Errorf("gateway configuration is required")
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	client, err := newProxyHTTPClient(c.ProxyURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway HTTP client: %w", err)
	}

	return &GatewayClient{
		baseURL: strings.TrimSuffix(c.BaseURL, "/"),
		token:   c.Token,
		client:  client,
		logger:  log.NewHelper(logger),
	}, nil
}

// Send delivers one message and returns the gateway delivery id.
func (g *GatewayClient) Send(ctx context.Context, recipient, payload string) (string, error) {
	data, err := json.Marshal(sendRequest{Recipient: recipient, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("failed to encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", pkgerrors.NewUpstreamTransportError(gatewayService, "send", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgerrors.NewUpstreamTransportError(gatewayService, "send", err)
	}

	if resp.StatusCode >= 400 {
		g.logger.Warnw("gateway send failed",
			"recipient", recipient,
			"status", resp.StatusCode,
			"body", truncate(string(respBody), 256))
		return "", pkgerrors.NewUpstreamStatusError(gatewayService, "send", resp.StatusCode,
			fmt.Errorf("%s", truncate(string(respBody), 256)))
	}

	var ack sendResponse
	if err := json.Unmarshal(respBody, &ack); err != nil {
		return "", pkgerrors.NewUpstreamTransportError(gatewayService, "send",
			fmt.Errorf("invalid response body: %w", err))
	}
	if ack.DeliveryID == "" {
		return "", pkgerrors.NewUpstreamTransportError(gatewayService, "send",
			fmt.Errorf("gateway returned no delivery id"))
	}

	return ack.DeliveryID, nil
}

// newProxyHTTPClient builds an HTTP client, optionally routed through a
// socks5/http/https proxy.
func newProxyHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}

		switch parsed.Scheme {
		case "socks5", "socks5h":
			dialer, err := newSOCKS5Dialer(parsed)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}

		case "http", "https":
			transport.Proxy = func(req *http.Request) (*url.URL, error) {
				return parsed, nil
			}

		default:
			return nil, fmt.Errorf("unsupported proxy scheme: %s (supported: socks5, http, https)", parsed.Scheme)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// newSOCKS5Dialer creates a SOCKS5 proxy dialer from a parsed proxy URL.
func newSOCKS5Dialer(parsed *url.URL) (proxy.Dialer, error) {
	var auth *proxy.Auth
	if parsed.User != nil {
		password, _ := parsed.User.Password()
		auth = &proxy.Auth{
			User:     parsed.User.Username(),
			Password: password,
		}
	}

	host := parsed.Host
	if !strings.Contains(host, ":") {
		host += ":1080" // SOCKS5 default port
	}

	return proxy.SOCKS5("tcp", host, auth, proxy.Direct)
}
