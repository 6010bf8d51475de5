package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/booking"
	"github.com/AliShamas2000/codelance-web-v2-sub000/pkg/logging"
)

// Cache is a short-TTL read-through decorator over a gateway. Entries are
// keyed by the exact request tuple and replaced wholesale, never merged, so
// the per-surface semantics are unchanged; the cache only absorbs repeated
// identical fetches across surfaces. Any Redis failure degrades to a direct
// gateway call.
type Cache struct {
	next      booking.Gateway
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
	logger    *logging.Logger
}

// NewCache wraps gateway with a Redis read-through cache. namespace keeps
// the endpoint families apart ("public", "admin", "barber").
func NewCache(gateway booking.Gateway, rdb *redis.Client, namespace string, ttl time.Duration, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{next: gateway, rdb: rdb, namespace: namespace, ttl: ttl, logger: logger}
}

// cachedDates is the stored form of a DateAvailability: ISO strings keep the
// entry independent of the host timezone.
type cachedDates struct {
	Available   []string `json:"available"`
	Unavailable []string `json:"unavailable"`
}

// FetchDates implements booking.Gateway.
func (c *Cache) FetchDates(ctx context.Context, barberID int) (booking.DateAvailability, error) {
	key := fmt.Sprintf("avail:%s:dates:%d", c.namespace, barberID)

	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var stored cachedDates
		if err := json.Unmarshal([]byte(raw), &stored); err == nil {
			return datesFromCache(stored), nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("availability cache read failed", "key", key, "error", err)
	}

	dates, err := c.next.FetchDates(ctx, barberID)
	if err != nil {
		return dates, err
	}
	c.store(ctx, key, datesToCache(dates))
	return dates, nil
}

// FetchSlots implements booking.Gateway.
func (c *Cache) FetchSlots(ctx context.Context, dateISO string, barberID int, serviceIDs []int) (booking.SlotAvailability, error) {
	key := fmt.Sprintf("avail:%s:slots:%s:%d:%s", c.namespace, dateISO, barberID, joinIDs(serviceIDs))

	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var stored booking.SlotAvailability
		if err := json.Unmarshal([]byte(raw), &stored); err == nil {
			return stored, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("availability cache read failed", "key", key, "error", err)
	}

	slots, err := c.next.FetchSlots(ctx, dateISO, barberID, serviceIDs)
	if err != nil {
		return slots, err
	}
	c.store(ctx, key, slots)
	return slots, nil
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", "key", key, "error", err)
	}
}

func datesToCache(d booking.DateAvailability) cachedDates {
	out := cachedDates{
		Available:   make([]string, 0, len(d.Available)),
		Unavailable: make([]string, 0, len(d.Unavailable)),
	}
	for _, t := range d.Available {
		out.Available = append(out.Available, booking.LocalISODate(t))
	}
	for _, t := range d.Unavailable {
		out.Unavailable = append(out.Unavailable, booking.LocalISODate(t))
	}
	return out
}

func datesFromCache(stored cachedDates) booking.DateAvailability {
	out := booking.DateAvailability{}
	for _, s := range stored.Available {
		if d, err := booking.ParseLocalISODate(s); err == nil {
			out.Available = append(out.Available, d)
		}
	}
	for _, s := range stored.Unavailable {
		if d, err := booking.ParseLocalISODate(s); err == nil {
			out.Unavailable = append(out.Unavailable, d)
		}
	}
	return out
}

func joinIDs(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
