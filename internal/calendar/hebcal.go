package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

const defaultHebcalURL = "https://www.hebcal.com/hebcal"

// HebcalClient fetches holy dates from the Hebcal REST API.
type HebcalClient struct {
	apiURL string
	client *http.Client
}

// NewHebcalClient creates a client against the public Hebcal endpoint, or
// HEBCAL_API_URL when set.
func NewHebcalClient() *HebcalClient {
	apiURL := os.Getenv("HEBCAL_API_URL")
	if apiURL == "" {
		apiURL = defaultHebcalURL
	}
	return &HebcalClient{
		apiURL: apiURL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// hebcalResponse is the subset of the Hebcal JSON payload the engine needs.
type hebcalResponse struct {
	Items []struct {
		Date   string `json:"date"`
		Title  string `json:"title"`
		YomTov bool   `json:"yomtov"`
	} `json:"items"`
	Error string `json:"error,omitempty"`
}

// HolyDates implements Service. Only full holy days (yomtov) suspend study;
// minor observances and eve days do not.
func (c *HebcalClient) HolyDates(ctx context.Context, start, end time.Time, region RegionMode) (DateSet, error) {
	q := url.Values{}
	q.Set("v", "1")
	q.Set("cfg", "json")
	q.Set("maj", "on")
	q.Set("start", FormatDate(start))
	q.Set("end", FormatDate(end))
	if region == RegionSingleDay {
		q.Set("i", "on")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query holiday calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday calendar returned status %d", resp.StatusCode)
	}

	var payload hebcalResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode holiday calendar response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("holiday calendar error: %s", payload.Error)
	}

	dates := make(DateSet)
	for _, item := range payload.Items {
		if !item.YomTov {
			continue
		}
		// Item dates may carry a time component; keep the date part only.
		day := item.Date
		if len(day) > len(DateFormat) {
			day = day[:len(DateFormat)]
		}
		dates[day] = struct{}{}
	}
	return dates, nil
}
