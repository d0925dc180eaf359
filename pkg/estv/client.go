// Package estv provides a client for the Swiss federal tax administration's
// simple-rates export, used as a fallback when no workbook download is
// available.
package estv

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ratesPath is the swisstaxcalculator proxy operation for bulk multipliers.
const ratesPath = "/delegate/ost-integration/v1/lg-proxy/operation/c3b67379_ESTV/API_exportManySimpleRates"

// Rates holds one municipality's income tax multipliers.
type Rates struct {
	Name        string
	Canton      string
	CantonRate  *float64
	CommuneRate *float64
	Multiplier  *float64
}

// Client fetches municipality tax multipliers for a tax year.
type Client interface {
	// IncomeRates returns multipliers keyed by BFS number.
	IncomeRates(ctx context.Context, year int) (map[string]Rates, error)
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the swisstaxcalculator server URL.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

type client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an ESTV client.
func NewClient(opts ...Option) Client {
	c := &client{
		baseURL:    "https://swisstaxcalculator.estv.admin.ch",
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ratesRequest struct {
	TaxYear int    `json:"TaxYear"`
	TaxType string `json:"TaxType"`
}

type ratesResponse struct {
	Response []rateEntry `json:"response"`
}

type rateEntry struct {
	BFSID       int      `json:"BfsID"`
	Name        string   `json:"BfsName"`
	Canton      string   `json:"Canton"`
	CantonRate  *float64 `json:"CantonRate"`
	CommuneRate *float64 `json:"CityRate"`
}

func (c *client) IncomeRates(ctx context.Context, year int) (map[string]Rates, error) {
	body, err := json.Marshal(ratesRequest{TaxYear: year, TaxType: "INCOME"})
	if err != nil {
		return nil, eris.Wrap(err, "estv: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ratesPath, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "estv: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "estv: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("estv: status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "estv: read body")
	}

	var parsed ratesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, eris.Wrap(err, "estv: parse response")
	}

	rates := make(map[string]Rates, len(parsed.Response))
	for _, e := range parsed.Response {
		if e.BFSID == 0 {
			continue
		}
		r := Rates{
			Name:        e.Name,
			Canton:      e.Canton,
			CantonRate:  round2Ptr(e.CantonRate),
			CommuneRate: round2Ptr(e.CommuneRate),
		}
		switch {
		case r.CantonRate != nil && r.CommuneRate != nil:
			t := round2(*r.CantonRate + *r.CommuneRate)
			r.Multiplier = &t
		case r.CommuneRate != nil:
			r.Multiplier = r.CommuneRate
		}
		rates[strconv.Itoa(e.BFSID)] = r
	}
	return rates, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}
