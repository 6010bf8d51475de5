// Package appointments is the submission side of the booking collaborator:
// creating appointments and loading existing ones for the edit surfaces.
// The server is authoritative; a slot can be taken between the availability
// fetch and the submit, in which case it rejects with a conflict.
package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AliShamas2000/codelance-web-v2-sub000/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// ErrConflict is returned when the server rejects a submission because the
// slot was taken between fetch and submit. The user must re-pick; no
// automatic re-fetch-and-retry happens here.
var ErrConflict = errors.New("appointments: slot no longer available")

// Appointment is the normalized submission payload: ISO date, 24-hour time.
type Appointment struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Date       string `json:"appointment_date"` // "YYYY-MM-DD"
	Time       string `json:"appointment_time"` // "HH:MM"
	ServiceIDs []int  `json:"services"`
	BarberID   int    `json:"barber_id"`
	Notes      string `json:"notes,omitempty"`
}

// Record is an existing appointment as returned by the collaborator. Date
// and time are kept stringly typed: older records carry a combined display
// string instead of the ISO/24h pair, and the edit surface parses whatever
// shape it finds.
type Record struct {
	ID         int    `json:"id"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Date       string `json:"appointment_date"`
	Time       string `json:"appointment_time"`
	ServiceIDs []int  `json:"services"`
	BarberID   int    `json:"barber_id"`
	Notes      string `json:"notes"`
}

// Client talks to one endpoint family of the appointment collaborator.
type Client struct {
	baseURL    string
	prefix     string // "", "/admin" or "/barber"
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a submission client for the public endpoint family.
func NewClient(baseURL string, logger *logging.Logger) *Client {
	return newClient(baseURL, "", "", logger)
}

// NewAdminClient creates a submission client for the /admin family. The
// bearer token is injected here, never read from ambient state.
func NewAdminClient(baseURL, token string, logger *logging.Logger) *Client {
	return newClient(baseURL, "/admin", token, logger)
}

// NewBarberClient creates a submission client for the /barber family.
func NewBarberClient(baseURL, token string, logger *logging.Logger) *Client {
	return newClient(baseURL, "/barber", token, logger)
}

func newClient(baseURL, prefix, token string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     prefix,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// Submit creates the appointment. A 409 maps to ErrConflict so surfaces can
// tell "re-pick your slot" apart from a hard failure.
func (c *Client) Submit(ctx context.Context, appt Appointment) (*Record, error) {
	body, err := json.Marshal(appt)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal payload: %w", err)
	}

	url := c.baseURL + c.prefix + "/appointments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("appointments: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("appointments: submit: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("appointments: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		c.logger.Warn("appointment submission conflict",
			"barber_id", appt.BarberID, "date", appt.Date, "time", appt.Time)
		return nil, ErrConflict
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("appointments: status %d: %s", resp.StatusCode, truncate(respBody))
	}

	var rec Record
	if err := json.Unmarshal(respBody, &rec); err != nil {
		return nil, fmt.Errorf("appointments: unmarshal response: %w", err)
	}
	return &rec, nil
}

// Get loads an existing appointment, used to seed the edit surfaces.
func (c *Client) Get(ctx context.Context, id int) (*Record, error) {
	url := fmt.Sprintf("%s%s/appointments/%d", c.baseURL, c.prefix, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("appointments: create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("appointments: get %d: %w", id, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("appointments: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("appointments: get %d: status %d: %s", id, resp.StatusCode, truncate(respBody))
	}

	var rec Record
	if err := json.Unmarshal(respBody, &rec); err != nil {
		return nil, fmt.Errorf("appointments: unmarshal record: %w", err)
	}
	return &rec, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func truncate(b []byte) string {
	msg := string(b)
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
