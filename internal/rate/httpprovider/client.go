package httpprovider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/rate"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client looks rates up on a remote per-diem rate service:
//
//	GET {base}/rates?locality=..&date=YYYY-MM-DD
//
// with the API key sent as a bearer token, so another deployment's
// /api/v1 can serve as the base.
//
// 404 means the locality is not listed; anything else non-200 is transient.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type rateResponse struct {
	Data struct {
		Locality         string `json:"locality"`
		Date             string `json:"date"`
		MIERateCents     int64  `json:"mie_rate_cents"`
		LodgingCapCents  int64  `json:"lodging_cap_cents"`
		MileageRateCents int64  `json:"mileage_rate_cents"`
	} `json:"data"`
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = rate.DefaultLookupTimeout
	}
	return &Client{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Lookup(ctx context.Context, locality string, date calendar.Date) (rate.Snapshot, error) {
	q := url.Values{}
	q.Set("locality", locality)
	q.Set("date", date.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rates?"+q.Encode(), nil)
	if err != nil {
		return rate.Snapshot{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("rate provider request failed", "locality", locality, "date", date.String(), "error", err)
		return rate.Snapshot{}, fmt.Errorf("rate provider request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return rate.Snapshot{}, rate.ErrNotListed
	default:
		c.logger.Warn("rate provider returned error status", "locality", locality, "date", date.String(), "status", resp.StatusCode)
		return rate.Snapshot{}, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return rate.Snapshot{}, fmt.Errorf("failed to decode rate response: %w", err)
	}

	answered, err := calendar.Parse(body.Data.Date)
	if err != nil {
		return rate.Snapshot{}, fmt.Errorf("rate provider returned bad date: %w", err)
	}

	return rate.Snapshot{
		Locality:         body.Data.Locality,
		Date:             answered,
		MIERateCents:     body.Data.MIERateCents,
		LodgingCapCents:  body.Data.LodgingCapCents,
		MileageRateCents: body.Data.MileageRateCents,
	}, nil
}
