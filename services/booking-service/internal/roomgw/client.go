package roomgw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/you/hostel-booking/services/booking-service/internal/domain"
)

// DateFormat is the wire format for calendar dates on the room API.
const DateFormat = "2006-01-02"

// ErrUnavailable covers connection failures and timeouts; the caller may
// retry, the client itself never does.
var ErrUnavailable = errors.New("room service unavailable")

// RejectedError is a non-2xx answer from the room subsystem, carrying the
// remote status and body.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("room service rejected request: status=%d body=%q", e.Status, e.Body)
}

// Client is the only component that talks to the room subsystem's
// availability API. Every call forwards the caller's bearer token
// unmodified; nothing is cached between calls.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type availableDateOut struct {
	ID     int64  `json:"id"`
	RoomID int64  `json:"room_id"`
	Date   string `json:"date"`
}

// AvailableDates reads the room's currently open dates.
func (c *Client) AvailableDates(ctx context.Context, roomID int64, token string) ([]time.Time, error) {
	url := fmt.Sprintf("%s/room/available_date/%d/", c.baseURL, roomID)
	body, err := c.do(ctx, http.MethodGet, url, nil, token)
	if err != nil {
		return nil, err
	}
	var rows []availableDateOut
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode available dates: %w", err)
	}
	dates := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		d, err := time.ParseInLocation(DateFormat, row.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("decode available date %q: %w", row.Date, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// Retract marks the dates as booked. The room subsystem deletes them
// all-or-nothing, so a rejection here means some date was no longer
// available and the reservation must be rolled back.
func (c *Client) Retract(ctx context.Context, roomID int64, dates []time.Time, token string) error {
	payload := struct {
		RoomID int64    `json:"room_id"`
		Dates  []string `json:"dates"`
	}{RoomID: roomID, Dates: formatDates(dates)}
	url := c.baseURL + "/room/available_date/"
	_, err := c.do(ctx, http.MethodDelete, url, payload, token)
	return err
}

// Restore re-opens a single date after a cancellation.
func (c *Client) Restore(ctx context.Context, roomID int64, date time.Time, token string) error {
	payload := struct {
		RoomID int64  `json:"room_id"`
		Date   string `json:"date"`
	}{RoomID: roomID, Date: domain.Day(date).Format(DateFormat)}
	url := c.baseURL + "/room/available_date/"
	_, err := c.do(ctx, http.MethodPost, url, payload, token)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload any, token string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RejectedError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, domain.Day(d).Format(DateFormat))
	}
	return out
}
