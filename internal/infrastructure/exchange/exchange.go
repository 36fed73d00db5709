// Package exchange implements market-data adapters for the domestic and foreign venues.
package exchange

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"premium-monitor/internal/application"
	"premium-monitor/internal/infrastructure/httpx"
)

// getJSON fetches base+path and returns the parsed document.
func getJSON(ctx context.Context, c *httpx.Client, base, path string, query url.Values) (gjson.Result, error) {
	u, err := url.Parse(base)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("invalid base url: %w", err)
	}
	u = u.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c == nil {
		c = &httpx.Client{}
	}
	body, err := c.Do(ctx, req)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s: %w", path, application.ErrMalformed)
	}
	return gjson.ParseBytes(body), nil
}

// number reads a JSON number or numeric string; anything else is NaN.
func number(r gjson.Result) float64 {
	switch r.Type {
	case gjson.Number:
		return r.Num
	case gjson.String:
		v, err := strconv.ParseFloat(r.Str, 64)
		if err != nil {
			return math.NaN()
		}
		return v
	default:
		return math.NaN()
	}
}
