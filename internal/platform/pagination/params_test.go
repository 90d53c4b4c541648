package pagination

import (
	"net/url"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestComputePage(t *testing.T) {
	cases := []struct {
		name      string
		page      int
		pageSize  int
		wantSkip  int
		wantLimit int
	}{
		{name: "first page", page: 1, pageSize: 20, wantSkip: 0, wantLimit: 20},
		{name: "third page", page: 3, pageSize: 25, wantSkip: 50, wantLimit: 25},
		{name: "zero page clamps to first", page: 0, pageSize: 10, wantSkip: 0, wantLimit: 10},
		{name: "negative page clamps to first", page: -4, pageSize: 10, wantSkip: 0, wantLimit: 10},
		{name: "zero page size clamps to one", page: 2, pageSize: 0, wantSkip: 1, wantLimit: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputePage(tc.page, tc.pageSize)
			if got.Skip != tc.wantSkip {
				t.Fatalf("expected skip %d, got %d", tc.wantSkip, got.Skip)
			}
			if got.Limit != tc.wantLimit {
				t.Fatalf("expected limit %d, got %d", tc.wantLimit, got.Limit)
			}
		})
	}
}

func TestValidateClampsWindow(t *testing.T) {
	cases := []struct {
		name      string
		skip      *int
		limit     *int
		maxLimit  int
		wantSkip  int
		wantLimit int
	}{
		{name: "negative skip and oversized limit", skip: intPtr(-5), limit: intPtr(2000), maxLimit: 1000, wantSkip: 0, wantLimit: 1000},
		{name: "defaults when absent", skip: nil, limit: nil, maxLimit: 0, wantSkip: 0, wantLimit: 100},
		{name: "zero limit clamps to one", skip: intPtr(10), limit: intPtr(0), maxLimit: 50, wantSkip: 10, wantLimit: 1},
		{name: "in range passes through", skip: intPtr(40), limit: intPtr(25), maxLimit: 100, wantSkip: 40, wantLimit: 25},
		{name: "default limit capped by small max", skip: nil, limit: nil, maxLimit: 30, wantSkip: 0, wantLimit: 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(tc.skip, tc.limit, tc.maxLimit)
			if got.Skip != tc.wantSkip {
				t.Fatalf("expected skip %d, got %d", tc.wantSkip, got.Skip)
			}
			if got.Limit != tc.wantLimit {
				t.Fatalf("expected limit %d, got %d", tc.wantLimit, got.Limit)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		name       string
		totalItems int
		pageSize   int
		want       int
	}{
		{name: "exact division", totalItems: 100, pageSize: 25, want: 4},
		{name: "remainder rounds up", totalItems: 101, pageSize: 25, want: 5},
		{name: "zero items", totalItems: 0, pageSize: 25, want: 0},
		{name: "zero page size", totalItems: 100, pageSize: 0, want: 0},
		{name: "negative items", totalItems: -3, pageSize: 10, want: 0},
		{name: "single partial page", totalItems: 7, pageSize: 10, want: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TotalPages(tc.totalItems, tc.pageSize); got != tc.want {
				t.Fatalf("expected %d pages, got %d", tc.want, got)
			}
		})
	}
}

func TestFromQuery(t *testing.T) {
	cases := []struct {
		name      string
		query     url.Values
		wantSkip  int
		wantLimit int
	}{
		{name: "skip and limit", query: url.Values{"skip": {"30"}, "limit": {"15"}}, wantSkip: 30, wantLimit: 15},
		{name: "page arithmetic", query: url.Values{"page": {"2"}, "pageSize": {"40"}}, wantSkip: 40, wantLimit: 40},
		{name: "malformed values use defaults", query: url.Values{"skip": {"abc"}, "limit": {"x"}}, wantSkip: 0, wantLimit: 100},
		{name: "empty query uses defaults", query: url.Values{}, wantSkip: 0, wantLimit: 100},
		{name: "explicit window beats page params", query: url.Values{"skip": {"5"}, "limit": {"5"}, "page": {"9"}}, wantSkip: 5, wantLimit: 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromQuery(tc.query, DefaultMaxLimit)
			if got.Skip != tc.wantSkip {
				t.Fatalf("expected skip %d, got %d", tc.wantSkip, got.Skip)
			}
			if got.Limit != tc.wantLimit {
				t.Fatalf("expected limit %d, got %d", tc.wantLimit, got.Limit)
			}
		})
	}
}
