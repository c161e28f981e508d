package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// Calendar methods understood by the Al Adhan conversion endpoints.
const (
	MethodHJCoSA       = "HJCoSA"
	MethodUAQ          = "UAQ"
	MethodDiyanet      = "DIYANET"
	MethodMathematical = "MATHEMATICAL"
)

// ValidMethods lists the accepted calendar methods.
var ValidMethods = []string{MethodHJCoSA, MethodUAQ, MethodDiyanet, MethodMathematical}

// Client communicates with the Al Adhan calendar conversion API.
type Client struct {
	httpClient *http.Client
	// BaseURL is the API base URL. Defaults to the Al Adhan API.
	// Exported for testing with httptest.
	BaseURL string
	// Method selects the calendar method. Empty lets the API choose.
	Method string
}

// NewClient creates a new API client with sensible defaults.
func NewClient(method string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BaseURL: defaultBaseURL,
		Method:  method,
	}
}

// GregorianToHijri fetches the Hijri dates for every day of a Gregorian month.
func (c *Client) GregorianToHijri(ctx context.Context, year, month, adjustment int) ([]hijri.Mapping, error) {
	endpoint := fmt.Sprintf("%s/gToHCalendar/%d/%d", c.BaseURL, month, year)
	return c.fetchCalendar(ctx, endpoint, adjustment)
}

// HijriToGregorian fetches the Gregorian dates for every day of a Hijri month.
func (c *Client) HijriToGregorian(ctx context.Context, year, month, adjustment int) ([]hijri.Mapping, error) {
	endpoint := fmt.Sprintf("%s/hToGCalendar/%d/%d", c.BaseURL, month, year)
	return c.fetchCalendar(ctx, endpoint, adjustment)
}

func (c *Client) fetchCalendar(ctx context.Context, endpoint string, adjustment int) ([]hijri.Mapping, error) {
	params := url.Values{}
	if c.Method != "" {
		params.Set("calendarMethod", c.Method)
	}
	if adjustment != 0 {
		params.Set("adjustment", strconv.Itoa(adjustment))
	}

	var resp CalendarResponse
	if err := c.doRequest(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, fmt.Errorf("API error: code=%d status=%s", resp.Code, resp.Status)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("API returned no days")
	}

	return resp.Mappings()
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}

	return nil
}
