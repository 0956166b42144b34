package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// ReviewSummary is the cached aggregate rating for a hotel in one
// language. Reviews are never fetched from the provider during search;
// this store is the only source, by design, to bound search latency.
type ReviewSummary struct {
	HotelID     string  `json:"hotel_id"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// GetSummaries loads review summaries for a batch of hotels. Missing
// hotels are absent from the map, not an error.
func (r *ReviewRepository) GetSummaries(ctx context.Context, hotelIDs []string, language string) (map[string]ReviewSummary, error) {
	if len(hotelIDs) == 0 {
		return map[string]ReviewSummary{}, nil
	}
	query := `
		SELECT hotel_id, rating, review_count
		FROM review_summaries
		WHERE hotel_id = ANY($1) AND language = $2
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(hotelIDs), language)
	if err != nil {
		return nil, fmt.Errorf("query review summaries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ReviewSummary, len(hotelIDs))
	for rows.Next() {
		var s ReviewSummary
		if err := rows.Scan(&s.HotelID, &s.Rating, &s.ReviewCount); err != nil {
			return nil, fmt.Errorf("scan review summary: %w", err)
		}
		out[s.HotelID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review summaries: %w", err)
	}
	return out, nil
}
