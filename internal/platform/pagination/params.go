package pagination

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit defines the fallback number of items returned when the client omits a limit.
	DefaultLimit = 100
	// DefaultMaxLimit caps the supported limit to prevent unbounded queries.
	DefaultMaxLimit = 1000
)

// Params bundles the offset-based pagination window applied to list queries.
type Params struct {
	Skip  int
	Limit int
}

// ComputePage translates 1-based page arithmetic into a skip/limit window.
// Pages and sizes below one are clamped, never rejected.
func ComputePage(page, pageSize int) Params {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return Params{Skip: (page - 1) * pageSize, Limit: pageSize}
}

// Validate clamps the supplied window into a safe range: skip is never
// negative, limit always falls in [1, maxLimit]. Nil pointers take the
// defaults (skip 0, limit DefaultLimit). Invalid input is clamped, never an
// error.
func Validate(skip, limit *int, maxLimit int) Params {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}

	params := Params{Skip: 0, Limit: DefaultLimit}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}

	if skip != nil {
		params.Skip = *skip
	}
	if limit != nil {
		params.Limit = *limit
	}

	if params.Skip < 0 {
		params.Skip = 0
	}
	if params.Limit < 1 {
		params.Limit = 1
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}

	return params
}

// TotalPages returns the number of pages needed for totalItems at pageSize,
// or zero when either argument is not positive.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// FromRequest extracts the pagination window from the request query string.
// Both page/pageSize and skip/limit parameter pairs are accepted; explicit
// skip/limit wins when both are present. Malformed values fall back to the
// clamped defaults.
func FromRequest(r *http.Request, maxLimit int) Params {
	if r == nil || r.URL == nil {
		return Validate(nil, nil, maxLimit)
	}
	return FromQuery(r.URL.Query(), maxLimit)
}

// FromQuery parses the supported pagination query parameters.
func FromQuery(values url.Values, maxLimit int) Params {
	if values == nil {
		return Validate(nil, nil, maxLimit)
	}

	skip := parseOptionalInt(values.Get("skip"))
	limit := parseOptionalInt(values.Get("limit"))

	if skip == nil && limit == nil {
		if page := parseOptionalInt(values.Get("page")); page != nil {
			pageSize := DefaultLimit
			if size := parseOptionalInt(values.Get("pageSize")); size != nil {
				pageSize = *size
			}
			computed := ComputePage(*page, pageSize)
			return Validate(&computed.Skip, &computed.Limit, maxLimit)
		}
	}

	return Validate(skip, limit, maxLimit)
}

func parseOptionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}
