package core

import (
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// Params are the query parameters of one provider request, excluding the API key.
type Params map[string]string

// Function returns the provider operation code.
func (p Params) Function() string {
	return p["function"]
}

// Encode renders the parameters plus the credential as a query string.
func (p Params) Encode(apiKey string) string {
	values := url.Values{}
	for key, value := range p {
		if value == "" {
			continue
		}
		values.Set(key, value)
	}
	if apiKey != "" {
		values.Set("apikey", apiKey)
	}
	return values.Encode()
}

// Payload is a raw provider response body. Object key order is preserved.
type Payload []byte

// Get returns the value at a top-level key. Keys containing gjson path
// characters (".", "*", "?") are escaped.
func (p Payload) Get(key string) gjson.Result {
	return gjson.GetBytes(p, gjson.Escape(key))
}

// Valid reports whether the payload is well-formed JSON.
func (p Payload) Valid() bool {
	return gjson.ValidBytes(p)
}

// Root parses the whole payload.
func (p Payload) Root() gjson.Result {
	return gjson.ParseBytes(p)
}

// UsageState captures request accounting for one quota key.
type UsageState struct {
	MinuteCount     int        `json:"minute_count"`
	MinuteStart     time.Time  `json:"minute_start"`
	DayCount        int        `json:"day_count"`
	DayStart        time.Time  `json:"day_start"`
	LastThrottledAt *time.Time `json:"last_throttled_at,omitempty"`
}
