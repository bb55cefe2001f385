package github

import (
	"errors"
	"time"

	"github.com/tidwall/gjson"
)

// RateLimitPath is the endpoint reporting the caller's API quota
const RateLimitPath = "/rate_limit"

// RateLimit is the core API quota of the authenticated installation
type RateLimit struct {
	Limit     int64
	Remaining int64
	Used      int64
	Reset     time.Time
}

// ParseRateLimit reads the core quota from a /rate_limit response body
func ParseRateLimit(data []byte) (*RateLimit, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("rate limit response is not valid JSON")
	}

	core := gjson.GetBytes(data, "resources.core")
	if !core.Exists() {
		core = gjson.GetBytes(data, "rate")
	}
	if !core.Exists() {
		return nil, errors.New("rate limit response has no core quota")
	}

	return &RateLimit{
		Limit:     core.Get("limit").Int(),
		Remaining: core.Get("remaining").Int(),
		Used:      core.Get("used").Int(),
		Reset:     time.Unix(core.Get("reset").Int(), 0).UTC(),
	}, nil
}
