package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/deck-translate/pkg/pagination"
)

func TestConfig_Finalize(t *testing.T) {
	t.Setenv("TEST_PAGE_SIZE", "15")

	cfg := &pagination.Config{}
	if err := cfg.Finalize(&pagination.Env{DefaultPageSize: "TEST_PAGE_SIZE"}); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if cfg.DefaultPageSize != 15 || cfg.MaxPageSize != 100 {
		t.Errorf("cfg = %+v", cfg)
	}

	bad := &pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
	if err := bad.Finalize(nil); err == nil {
		t.Error("Finalize() accepted default above max")
	}

	t.Setenv("TEST_MAX_PAGE_SIZE", "lots")
	junk := &pagination.Config{}
	if err := junk.Finalize(&pagination.Env{MaxPageSize: "TEST_MAX_PAGE_SIZE"}); err == nil {
		t.Error("Finalize() accepted non-numeric env value")
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantSort     int
	}{
		{"empty", "", 1, 20, 0},
		{"explicit", "page=3&page_size=5&sort=-created_at", 3, 5, 1},
		{"clamped", "page=-1&page_size=1000", 1, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, cfg)

			if req.Page != tt.wantPage || req.PageSize != tt.wantPageSize || len(req.Sort) != tt.wantSort {
				t.Errorf("req = %+v", req)
			}
			if req.Offset() != (tt.wantPage-1)*tt.wantPageSize {
				t.Errorf("Offset() = %d", req.Offset())
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	r := pagination.NewPageResult[int](nil, 41, 1, 20)
	if r.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", r.TotalPages)
	}
	if r.Data == nil {
		t.Error("Data is nil, want empty slice")
	}

	if !r.HasNext {
		t.Error("HasNext = false on page 1 of 3")
	}

	empty := pagination.NewPageResult([]int{}, 0, 1, 20)
	if empty.TotalPages != 1 || empty.HasNext {
		t.Errorf("empty = %+v", empty)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		page int
		want []int
		next bool
	}{
		{"first", 1, []int{1, 2}, true},
		{"last partial", 3, []int{5}, false},
		{"past end", 9, []int{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := pagination.Paginate(items, pagination.PageRequest{Page: tt.page, PageSize: 2})
			if len(r.Data) != len(tt.want) {
				t.Fatalf("Data = %v, want %v", r.Data, tt.want)
			}
			for i := range tt.want {
				if r.Data[i] != tt.want[i] {
					t.Errorf("Data = %v, want %v", r.Data, tt.want)
				}
			}
			if r.Total != 5 || r.HasNext != tt.next {
				t.Errorf("Total = %d HasNext = %v", r.Total, r.HasNext)
			}
		})
	}
}
