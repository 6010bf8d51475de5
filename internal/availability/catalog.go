package availability

import (
	"context"
	"net/url"
)

// Barber is a staff member appointments can be booked with. Immutable once
// fetched; the booking core refers to it by id only.
type Barber struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Service is a bookable service. Durations sum server-side to size slots.
type Service struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
}

// GetBarbers returns the bookable staff list for the surface's pickers.
func (c *Client) GetBarbers(ctx context.Context) ([]Barber, error) {
	var out []Barber
	if err := c.get(ctx, "/barbers", url.Values{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetServices returns the service catalog for the surface's pickers.
func (c *Client) GetServices(ctx context.Context) ([]Service, error) {
	var out []Service
	if err := c.get(ctx, "/services", url.Values{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
