package listutil

import (
	"net/url"
	"testing"
)

func TestParse(t *testing.T) {
	sortCols := []string{"name", "register_no"}
	filters := []string{"department", "gender"}

	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, PerPage: DefaultPerPage}},
		{"explicit", "page=3&per_page=50&sort=name&dir=desc", Params{Page: 3, PerPage: 50, Sort: "name", Desc: true}},
		{"negative page", "page=-1", Params{Page: 1, PerPage: DefaultPerPage}},
		{"per_page too large", "per_page=5000", Params{Page: 1, PerPage: DefaultPerPage}},
		{"unknown sort column", "sort=password", Params{Page: 1, PerPage: DefaultPerPage}},
		{"dir is case-insensitive", "sort=register_no&dir=DESC", Params{Page: 1, PerPage: DefaultPerPage, Sort: "register_no", Desc: true}},
		{"search is trimmed", "q=+asha+", Params{Page: 1, PerPage: DefaultPerPage, Search: "asha"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got := Parse(q, sortCols, filters)
			if got.Page != tt.want.Page || got.PerPage != tt.want.PerPage || got.Sort != tt.want.Sort ||
				got.Desc != tt.want.Desc || got.Search != tt.want.Search {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestParse_Filters(t *testing.T) {
	q := url.Values{"department": {"d-cs"}, "gender": {" "}, "role": {"admin"}}
	p := Parse(q, nil, []string{"department", "gender"})
	if len(p.Filters) != 1 || p.Filters["department"] != "d-cs" {
		t.Errorf("Filters = %v, want only department", p.Filters)
	}
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		perPage    int
		total      int
		wantPage   int
		wantPages  int
		wantNext   bool
		wantOffset int
	}{
		{"first", 1, 20, 85, 1, 5, true, 0},
		{"second", 2, 20, 85, 2, 5, true, 20},
		{"last", 5, 20, 85, 5, 5, false, 80},
		{"beyond last", 10, 20, 85, 5, 5, false, 180},
		{"empty", 1, 20, 0, 1, 1, false, 0},
		{"exact fit", 1, 10, 10, 1, 1, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params{Page: tt.page, PerPage: tt.perPage}
			pg := NewPage(p, tt.total)
			if pg.Page != tt.wantPage || pg.TotalPages != tt.wantPages {
				t.Errorf("NewPage() = %+v, want page %d of %d", pg, tt.wantPage, tt.wantPages)
			}
			if pg.HasNext() != tt.wantNext {
				t.Errorf("HasNext() = %v, want %v", pg.HasNext(), tt.wantNext)
			}
			if p.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", p.Offset(), tt.wantOffset)
			}
		})
	}
}
