// Package listutil parses list query strings (paging, sorting, filters) for the
// JSON list endpoints and computes the page envelope returned with each list.
package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPerPage is the page size used when per_page is absent or not allowed.
const DefaultPerPage = 25

// MaxPerPage bounds per_page; larger values fall back to DefaultPerPage.
const MaxPerPage = 200

// Params is a parsed list query: ?page=2&per_page=50&sort=name&dir=desc&q=asha&department=d1
type Params struct {
	Page    int
	PerPage int
	Sort    string // "" when absent or not in the allowed columns
	Desc    bool
	Search  string
	Filters map[string]string // only the allowed filter keys, non-empty values
}

// Parse reads a list query. Unknown sort columns and filter keys are dropped.
// POST: Page >= 1; 1 <= PerPage <= MaxPerPage
func Parse(q url.Values, sortColumns, filterKeys []string) Params {
	p := Params{
		Page:    atoiMin(q.Get("page"), 1, 1),
		PerPage: atoiMin(q.Get("per_page"), 1, DefaultPerPage),
		Search:  strings.TrimSpace(q.Get("q")),
		Desc:    strings.EqualFold(q.Get("dir"), "desc"),
		Filters: make(map[string]string, len(filterKeys)),
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = DefaultPerPage
	}
	if sort := q.Get("sort"); contains(sortColumns, sort) {
		p.Sort = sort
	}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			p.Filters[key] = v
		}
	}
	return p
}

// Offset is the SQL OFFSET for the requested page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is the paging envelope of a list response.
type Page struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPage computes the envelope for total matching rows.
// POST: TotalPages >= 1; Page is clamped into [1, TotalPages]
func NewPage(p Params, total int) Page {
	perPage := p.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	page := p.Page
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return Page{Page: page, PerPage: perPage, Total: total, TotalPages: pages}
}

// HasNext reports whether a later page exists.
func (pg Page) HasNext() bool {
	return pg.Page < pg.TotalPages
}

func atoiMin(s string, min, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < min {
		return fallback
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
