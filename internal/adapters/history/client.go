// Package history implements the remote creative-history collaborator
// client. The remote service authorizes requests with a deterministic
// daily token and answers with a single-element JSON array whose history
// fields are themselves JSON-encoded arrays of strings.
package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/creativetrack/core/internal/ports"
)

// Client fetches a creative asset's version history from the remote
// collaborator and decodes it into a tagged timeline record.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a history client against the given collaborator URL
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// DailyToken derives the collaborator's access code for today. It is a
// one-way digest of the requester's email, the shared secret and the
// current UTC date, so it rotates at midnight UTC without coordination.
func (c *Client) DailyToken(requestedBy string) string {
	date := c.now().UTC().Format("02/01/2006")
	sum := sha256.Sum256([]byte(requestedBy + c.secret + date))
	return hex.EncodeToString(sum[:])
}

// remoteRecord mirrors the collaborator's wire format. The four history
// fields are JSON-encoded string arrays carried as strings.
type remoteRecord struct {
	LastUpdateURL     string `json:"last_update_url"`
	UpdatedAt         string `json:"updatedAt"`
	HistoryURL        string `json:"history_url"`
	HistoryCreatedAt  string `json:"history_createdAt"`
	FeedbackHistory   string `json:"feedback_history"`
	FeedbackCreatedAt string `json:"feedback_createdAt"`
	CreatedAt         string `json:"createdAt"`
}

// FetchHistory issues one GET for the asset URL and decodes the response
// into a HistoryRecord. Any transport failure, non-2xx status or shape
// deviation is returned as an error; the caller maps errors to an empty
// timeline.
func (c *Client) FetchHistory(ctx context.Context, creativeURL, requestedBy string) (*ports.HistoryRecord, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse history base url: %w", err)
	}

	q := endpoint.Query()
	q.Set("code", c.DailyToken(requestedBy))
	q.Set("requested_by", requestedBy)
	q.Set("creative_url", creativeURL)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch history: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read history response: %w", err)
	}

	var records []remoteRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode history response: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("decode history response: empty result set")
	}

	return decodeRecord(records[0])
}

// decodeRecord flattens the four index-aligned arrays into one tagged
// entry list. Each pair (values, timestamps) is aligned within itself;
// a missing or unparseable timestamp falls back to the batch createdAt.
func decodeRecord(rec remoteRecord) (*ports.HistoryRecord, error) {
	urls, err := decodeStringArray(rec.HistoryURL)
	if err != nil {
		return nil, fmt.Errorf("decode history_url: %w", err)
	}
	urlTimes, err := decodeStringArray(rec.HistoryCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode history_createdAt: %w", err)
	}
	feedbacks, err := decodeStringArray(rec.FeedbackHistory)
	if err != nil {
		return nil, fmt.Errorf("decode feedback_history: %w", err)
	}
	feedbackTimes, err := decodeStringArray(rec.FeedbackCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode feedback_createdAt: %w", err)
	}

	batchCreated := parseTime(rec.CreatedAt, time.Time{})

	out := &ports.HistoryRecord{
		CurrentURL: rec.LastUpdateURL,
		UpdatedAt:  parseTime(rec.UpdatedAt, batchCreated),
		CreatedAt:  batchCreated,
	}

	for i, u := range urls {
		if u == "" {
			continue
		}
		out.Entries = append(out.Entries, ports.TimelineEntry{
			Type:      ports.TimelineEntryCreative,
			URL:       u,
			Timestamp: timeAt(urlTimes, i, batchCreated),
		})
	}
	for i, fb := range feedbacks {
		if fb == "" {
			continue
		}
		out.Entries = append(out.Entries, ports.TimelineEntry{
			Type:      ports.TimelineEntryFeedback,
			Feedback:  fb,
			Timestamp: timeAt(feedbackTimes, i, batchCreated),
		})
	}

	return out, nil
}

// decodeStringArray parses a JSON-encoded string array. Empty input is a
// valid empty array.
func decodeStringArray(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func timeAt(times []string, i int, fallback time.Time) time.Time {
	if i < len(times) {
		return parseTime(times[i], fallback)
	}
	return fallback
}

func parseTime(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return fallback
}
