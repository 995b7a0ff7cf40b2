package repository

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

// DefaultPageSize and MaxPageSize bound ShowSearchQuery.PageSize.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ShowSearchQuery defines filters and pagination for browsing the catalog.
// Text filters are case-insensitive substring matches; empty filters match
// everything. Page is 1-based.
type ShowSearchQuery struct {
	Title         string
	Venue         string
	AvailableOnly bool
	Page          int
	PageSize      int
}

// normalize clamps paging to sane values.
func (q ShowSearchQuery) normalize() ShowSearchQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Title = strings.ToLower(strings.TrimSpace(q.Title))
	q.Venue = strings.ToLower(strings.TrimSpace(q.Venue))
	return q
}

// Search filters shows, orders them by date, time and id, and returns the
// requested page together with the number of matches before paging.
func Search(shows []model.Show, q ShowSearchQuery) ([]model.Show, int) {
	q = q.normalize()
	matched := lo.Filter(shows, func(s model.Show, _ int) bool {
		if q.AvailableOnly && s.SoldOut() {
			return false
		}
		if q.Title != "" && !strings.Contains(strings.ToLower(s.Title), q.Title) {
			return false
		}
		if q.Venue != "" && !strings.Contains(strings.ToLower(s.Venue), q.Venue) {
			return false
		}
		return true
	})
	slices.SortFunc(matched, func(a, b model.Show) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.Time, b.Time), cmp.Compare(a.ID, b.ID))
	})

	total := len(matched)
	start := (q.Page - 1) * q.PageSize
	if start >= total {
		return []model.Show{}, total
	}
	end := min(start+q.PageSize, total)
	return matched[start:end], total
}
