package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticket-ledger/internal/model"
)

// DefaultShows is the sample catalog written by SeedDefaults.
func DefaultShows() []model.Show {
	shows := []model.Show{
		{
			ID:          "show-1",
			Title:       "The Phantom of the Opera",
			Description: "The timeless story of the Phantom and Christine",
			Date:        "2025-12-15",
			Time:        "19:30",
			Venue:       "Grand Theater",
			UnitPrice:   decimal.NewFromInt(85),
			Capacity:    150,
			ImageURL:    "https://images.unsplash.com/photo-1503095396549-807759245b35?w=800",
		},
		{
			ID:          "show-2",
			Title:       "Hamilton",
			Description: "The revolutionary story of America's founding father",
			Date:        "2025-12-20",
			Time:        "20:00",
			Venue:       "Broadway Theater",
			UnitPrice:   decimal.NewFromInt(120),
			Capacity:    200,
			ImageURL:    "https://images.unsplash.com/photo-1514306191717-452ec28c7814?w=800",
		},
		{
			ID:          "show-3",
			Title:       "Les Misérables",
			Description: "An epic tale of broken dreams, passion and redemption",
			Date:        "2025-12-22",
			Time:        "19:00",
			Venue:       "Royal Opera House",
			UnitPrice:   decimal.NewFromInt(95),
			Capacity:    180,
			ImageURL:    "https://images.unsplash.com/photo-1507676184212-d03ab07a01bf?w=800",
		},
		{
			ID:          "show-4",
			Title:       "Wicked",
			Description: "The untold story of the Witches of Oz",
			Date:        "2025-12-25",
			Time:        "18:00",
			Venue:       "Apollo Theater",
			UnitPrice:   decimal.NewFromInt(110),
			Capacity:    220,
			ImageURL:    "https://images.unsplash.com/photo-1516450360452-9312f5e86fc7?w=800",
		},
		{
			ID:          "show-5",
			Title:       "Harry Potter and the Cursed Child",
			Description: "The eighth story. Nineteen years later. Experience the magic on stage.",
			Date:        "2025-12-28",
			Time:        "19:30",
			Venue:       "Palace Theatre",
			UnitPrice:   decimal.NewFromInt(135),
			Capacity:    240,
			ImageURL:    "https://images.unsplash.com/photo-1633856364580-97698963b68b?w=800",
		},
	}
	for i := range shows {
		shows[i].TicketsRemaining = shows[i].Capacity
	}
	return shows
}

// SeedDefaults writes DefaultShows, skipping shows that already exist so
// a restart never resets inventory. It returns how many were created.
func (r *ShowRepo) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, s := range DefaultShows() {
		err := r.Create(ctx, &s)
		if errors.Is(err, ErrShowExists) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
