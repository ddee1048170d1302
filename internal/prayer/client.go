// Package prayer implements the client for the islomapi.uz prayer-time API.
// It maps provider-specific field names to the five canonical prayers.
package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Name identifies one of the five canonical daily prayers.
type Name string

// Canonical prayer identifiers, in daily order.
const (
	Fajr    Name = "Fajr"
	Dhuhr   Name = "Dhuhr"
	Asr     Name = "Asr"
	Maghrib Name = "Maghrib"
	Isha    Name = "Isha"
)

// All lists the five prayers in daily order.
var All = []Name{Fajr, Dhuhr, Asr, Maghrib, Isha}

// DisplayName returns the Uzbek display name for a prayer.
func (n Name) DisplayName() string {
	switch n {
	case Fajr:
		return "🌅 Bomdod"
	case Dhuhr:
		return "🌞 Peshin"
	case Asr:
		return "🌇 Asr"
	case Maghrib:
		return "🌆 Shom"
	case Isha:
		return "🌃 Xufton"
	default:
		return string(n)
	}
}

// Times holds today's prayer times as HH:MM strings keyed by canonical name.
type Times map[Name]string

// At parses the HH:MM entry for the given prayer into a timestamp on the
// same calendar day as base, in base's location.
func (t Times) At(name Name, base time.Time) (time.Time, error) {
	raw, ok := t[name]
	if !ok || raw == "" {
		return time.Time{}, fmt.Errorf("no time for prayer %s", name)
	}

	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q for prayer %s: %w", raw, name, err)
	}

	return time.Date(base.Year(), base.Month(), base.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, base.Location()), nil
}

// Regions lists the regions the provider supports.
var Regions = []string{
	"Toshkent", "Samarqand", "Buxoro", "Andijon", "Namangan",
	"Farg'ona", "Qashqadaryo", "Surxondaryo", "Jizzax", "Sirdaryo",
	"Xorazm", "Navoiy", "Qoraqalpog'iston",
}

// ValidRegion reports whether the provider supports the given region.
func ValidRegion(region string) bool {
	for _, r := range Regions {
		if r == region {
			return true
		}
	}
	return false
}

// Client fetches today's prayer times for a region.
type Client interface {
	Times(ctx context.Context, region string) (Times, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a prayer-time client for the given API base URL.
// The timeout bounds each fetch so a stalled provider call degrades one
// user's prayer check, not a whole sweep.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     logger.With("component", "prayer_client"),
	}
}

// presentDayResponse mirrors the provider's /api/present/day payload.
type presentDayResponse struct {
	Region string `json:"region"`
	Times  struct {
		TongSaharlik string `json:"tong_saharlik"`
		Peshin       string `json:"peshin"`
		Asr          string `json:"asr"`
		ShomIftor    string `json:"shom_iftor"`
		Hufton       string `json:"hufton"`
	} `json:"times"`
}

// Times fetches today's prayer times for the region and maps the provider's
// field names to the canonical prayer identifiers.
func (c *httpClient) Times(ctx context.Context, region string) (Times, error) {
	reqURL := fmt.Sprintf("%s/api/present/day?region=%s", c.baseURL, url.QueryEscape(region))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build prayer times request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prayer times request failed for region %s: %w", region, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Error closing prayer times response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("prayer times request for region %s returned status %d: %s",
			region, resp.StatusCode, string(body))
	}

	var payload presentDayResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode prayer times for region %s: %w", region, err)
	}

	times := Times{
		Fajr:    payload.Times.TongSaharlik,
		Dhuhr:   payload.Times.Peshin,
		Asr:     payload.Times.Asr,
		Maghrib: payload.Times.ShomIftor,
		Isha:    payload.Times.Hufton,
	}

	for _, name := range All {
		if times[name] == "" {
			return nil, fmt.Errorf("prayer times response for region %s is missing %s", region, name)
		}
	}

	c.log.DebugContext(ctx, "Fetched prayer times", "region", region)
	return times, nil
}
