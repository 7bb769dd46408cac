package catalog

import "testing"

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, DefaultLimit},
		{"3", "10", 3, 10},
		{"0", "500", 1, MaxLimit},
		{"-2", "-5", 1, 1},
		{"abc", "0", 1, DefaultLimit},
	}
	for _, tt := range tests {
		p, l := ParsePage(tt.page, tt.limit)
		if p != tt.wantPage || l != tt.wantLimit {
			t.Fatalf("ParsePage(%q, %q) = %d, %d; want %d, %d", tt.page, tt.limit, p, l, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestNewPagination(t *testing.T) {
	got := NewPagination(1, 25, 0)
	if got.TotalPages != 0 || got.HasNext || got.HasPrev {
		t.Fatalf("empty pagination: %+v", got)
	}

	got = NewPagination(2, 25, 51)
	want := Pagination{Page: 2, Limit: 25, TotalCount: 51, TotalPages: 3, HasNext: true, HasPrev: true}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestLikePattern(t *testing.T) {
	if got := likePattern("  "); got != "" {
		t.Fatalf("blank search should produce no pattern, got %q", got)
	}
	if got := likePattern("50%_off"); got != `%50\%\_off%` {
		t.Fatalf("unexpected pattern %q", got)
	}
}
