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
	"StayBridge/internal/model"
	pkgerrors "StayBridge/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	pmsService = "pms"
	userAgent  = "StayBridge/1.0"
)

// PMSClient talks to the upstream Property Management System over HTTP.
// It does no caching, admission control, or retrying itself; the biz layer
// wraps every call in a breaker and the monitor. Any status >= 400 comes
// back as an UpstreamError with its retryable classification.
type PMSClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *log.Helper
}

// NewPMSClient creates the PMS HTTP client.
func NewPMSClient(c *conf.PMS, logger log.Logger) (*PMSClient, error) {
	if c == nil || c.BaseURL == "" {
		return nil, fmt.Errorf("pms configuration is required")
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &PMSClient{
		baseURL: strings.TrimSuffix(c.BaseURL, "/"),
		apiKey:  c.APIKey,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
			Timeout: timeout,
		},
		logger: log.NewHelper(logger),
	}, nil
}

// CheckAvailability queries room availability for a room type and stay range.
func (p *PMSClient) CheckAvailability(ctx context.Context, roomType, checkIn, checkOut string) (*model.Availability, error) {
	q := url.Values{}
	q.Set("room_type", roomType)
	q.Set("check_in", checkIn)
	q.Set("check_out", checkOut)

	var out model.Availability
	if err := p.do(ctx, http.MethodGet, "/v1/availability?"+q.Encode(), "availability", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReservation fetches a reservation by id.
func (p *PMSClient) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	var out model.Reservation
	path := "/v1/reservations/" + url.PathEscape(id)
	if err := p.do(ctx, http.MethodGet, path, "reservation", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReservation creates a new reservation.
func (p *PMSClient) CreateReservation(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error) {
	var out model.Reservation
	if err := p.do(ctx, http.MethodPost, "/v1/reservations", "reservation.create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateReservation patches an existing reservation.
func (p *PMSClient) UpdateReservation(ctx context.Context, id string, req *model.ReservationRequest) (*model.Reservation, error) {
	var out model.Reservation
	path := "/v1/reservations/" + url.PathEscape(id)
	if err := p.do(ctx, http.MethodPatch, path, "reservation.update", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetGuestFolio fetches the running bill for a guest.
func (p *PMSClient) GetGuestFolio(ctx context.Context, guestID string) (*model.Folio, error) {
	var out model.Folio
	path := "/v1/guests/" + url.PathEscape(guestID) + "/folio"
	if err := p.do(ctx, http.MethodGet, path, "folio", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddFolioCharge posts a charge to a guest folio and returns the fresh folio.
func (p *PMSClient) AddFolioCharge(ctx context.Context, guestID string, charge *model.FolioCharge) (*model.Folio, error) {
	var out model.Folio
	path := "/v1/guests/" + url.PathEscape(guestID) + "/folio/charges"
	if err := p.do(ctx, http.MethodPost, path, "folio.charge", charge, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetGuestProfile fetches the near-static guest record.
func (p *PMSClient) GetGuestProfile(ctx context.Context, guestID string) (*model.GuestProfile, error) {
	var out model.GuestProfile
	path := "/v1/guests/" + url.PathEscape(guestID)
	if err := p.do(ctx, http.MethodGet, path, "profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping hits the lightweight PMS health endpoint.
func (p *PMSClient) Ping(ctx context.Context) error {
	return p.do(ctx, http.MethodGet, "/v1/ping", "health", nil, nil)
}

// do performs one HTTP round trip against the PMS.
func (p *PMSClient) do(ctx context.Context, method, path, operation string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return pkgerrors.NewUpstreamTransportError(pmsService, operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.NewUpstreamTransportError(pmsService, operation, err)
	}

	if resp.StatusCode >= 400 {
		p.logger.Warnw("PMS call failed",
			"operation", operation,
			"status", resp.StatusCode,
			"body", truncate(string(respBody), 256))
		return pkgerrors.NewUpstreamStatusError(pmsService, operation, resp.StatusCode,
			fmt.Errorf("%s", truncate(string(respBody), 256)))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return pkgerrors.NewUpstreamTransportError(pmsService, operation,
				fmt.Errorf("invalid response body: %w", err))
		}
	}
	return nil
}

// truncate caps a string for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
