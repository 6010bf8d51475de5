// Package availability is the HTTP gateway to the external availability
// collaborator. The booking core treats it as a black box returning lists
// of open dates and slot labels; correctness of the slot computation itself
// (capacity, working hours, breaks) is the collaborator's problem.
package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/booking"
	"github.com/AliShamas2000/codelance-web-v2-sub000/pkg/logging"
)

const (
	defaultTimeout = 20 * time.Second
	defaultDays    = 60
)

var tracer = otel.Tracer("codelance.internal.availability")

// datesResponse is the wire shape of the available-dates endpoint.
type datesResponse struct {
	Available   []string `json:"available"`
	Unavailable []string `json:"unavailable"`
}

// slotsResponse is the wire shape of the time-slots endpoint.
type slotsResponse struct {
	Available   []string `json:"available"`
	Unavailable []string `json:"unavailable"`
}

// Client implements booking.Gateway against one endpoint family of the
// collaborator: "" (public), "/admin" or "/barber". Credentials are
// injected at construction.
type Client struct {
	baseURL    string
	prefix     string
	token      string
	days       int
	httpClient *http.Client
	logger     *logging.Logger
}

// Option tweaks a Client.
type Option func(*Client)

// WithDays sets how many days ahead the date fetch asks for.
func WithDays(days int) Option {
	return func(c *Client) {
		if days > 0 {
			c.days = days
		}
	}
}

// WithTimeout overrides the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a gateway for the public endpoint family.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	return newClient(baseURL, "", "", logger, opts...)
}

// NewAdminClient creates a gateway for the /admin endpoint family.
func NewAdminClient(baseURL, token string, logger *logging.Logger, opts ...Option) *Client {
	return newClient(baseURL, "/admin", token, logger, opts...)
}

// NewBarberClient creates a gateway for the /barber endpoint family.
func NewBarberClient(baseURL, token string, logger *logging.Logger, opts ...Option) *Client {
	return newClient(baseURL, "/barber", token, logger, opts...)
}

func newClient(baseURL, prefix, token string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     prefix,
		token:      token,
		days:       defaultDays,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDates returns the barber's open and closed days, normalized to local
// midnight. Dates the collaborator sends in a shape we cannot parse are
// skipped rather than failing the whole fetch.
func (c *Client) FetchDates(ctx context.Context, barberID int) (booking.DateAvailability, error) {
	ctx, span := tracer.Start(ctx, "availability.fetch_dates")
	defer span.End()
	span.SetAttributes(attribute.Int("booking.barber_id", barberID))

	q := url.Values{}
	q.Set("barber_id", strconv.Itoa(barberID))
	q.Set("days", strconv.Itoa(c.days))

	var wire datesResponse
	if err := c.get(ctx, "/appointments/available-dates", q, &wire); err != nil {
		span.RecordError(err)
		return booking.DateAvailability{}, err
	}

	out := booking.DateAvailability{
		Available:   c.parseDates(wire.Available),
		Unavailable: c.parseDates(wire.Unavailable),
	}
	span.SetAttributes(attribute.Int("booking.available_dates", len(out.Available)))
	return out, nil
}

// FetchSlots returns the slot labels for a (date, barber, services) tuple.
// The full service id list rides on every call; the server sizes slots for
// the summed duration.
func (c *Client) FetchSlots(ctx context.Context, dateISO string, barberID int, serviceIDs []int) (booking.SlotAvailability, error) {
	ctx, span := tracer.Start(ctx, "availability.fetch_slots")
	defer span.End()
	span.SetAttributes(
		attribute.Int("booking.barber_id", barberID),
		attribute.String("booking.date", dateISO),
		attribute.Int("booking.service_count", len(serviceIDs)),
	)

	q := url.Values{}
	q.Set("date", dateISO)
	q.Set("barber_id", strconv.Itoa(barberID))
	for _, id := range serviceIDs {
		q.Add("service_ids[]", strconv.Itoa(id))
	}

	var wire slotsResponse
	if err := c.get(ctx, "/appointments/time-slots", q, &wire); err != nil {
		span.RecordError(err)
		return booking.SlotAvailability{}, err
	}
	return booking.SlotAvailability{
		Available:   wire.Available,
		Unavailable: wire.Unavailable,
	}, nil
}

func (c *Client) parseDates(raw []string) []time.Time {
	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := booking.ParseLocalISODate(s)
		if err != nil {
			c.logger.Warn("availability: skipping unparseable date", "value", s)
			continue
		}
		out = append(out, d)
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	reqURL := c.baseURL + c.prefix + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("availability: create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("availability: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("availability: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("availability: %s status %d: %s", path, resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("availability: unmarshal %s: %w", path, err)
	}
	return nil
}
