package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// RoomGroup is locally stored media/amenity data for one room type.
type RoomGroup struct {
	Name      string   `json:"name"`
	Images    []string `json:"images"`
	Amenities []string `json:"amenities"`
}

// HotelContent is the locally stored static content for one hotel,
// keyed by the provider's string id.
type HotelContent struct {
	ID         string      `json:"id"`
	HID        int64       `json:"hid"`
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	City       string      `json:"city"`
	Country    string      `json:"country"`
	StarRating int         `json:"star_rating"`
	Latitude   float64     `json:"latitude"`
	Longitude  float64     `json:"longitude"`
	Images     []string    `json:"images"`
	Amenities  []string    `json:"amenities"`
	RoomGroups []RoomGroup `json:"room_groups"`
}

type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// GetByIDs loads static content for a batch of hotel ids. Hotels absent
// from the store are simply missing from the returned map; the caller
// marks them "not enriched" instead of failing the response.
func (r *ContentRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*HotelContent, error) {
	if len(ids) == 0 {
		return map[string]*HotelContent{}, nil
	}
	query := `
		SELECT id, hid, name, address, city, country, star_rating,
		       latitude, longitude, images, amenities
		FROM hotel_content
		WHERE id = ANY($1)
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query hotel content: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*HotelContent, len(ids))
	for rows.Next() {
		var h HotelContent
		err := rows.Scan(
			&h.ID,
			&h.HID,
			&h.Name,
			&h.Address,
			&h.City,
			&h.Country,
			&h.StarRating,
			&h.Latitude,
			&h.Longitude,
			pq.Array(&h.Images),
			pq.Array(&h.Amenities),
		)
		if err != nil {
			return nil, fmt.Errorf("scan hotel content: %w", err)
		}
		out[h.ID] = &h
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hotel content: %w", err)
	}
	return out, nil
}

// GetByID loads one hotel with its room groups.
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*HotelContent, error) {
	batch, err := r.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	h, ok := batch[id]
	if !ok {
		return nil, nil
	}

	query := `
		SELECT name, images, amenities
		FROM hotel_room_groups
		WHERE hotel_id = $1
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query room groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g RoomGroup
		if err := rows.Scan(&g.Name, pq.Array(&g.Images), pq.Array(&g.Amenities)); err != nil {
			return nil, fmt.Errorf("scan room group: %w", err)
		}
		h.RoomGroups = append(h.RoomGroups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room groups: %w", err)
	}
	return h, nil
}
