package search

import (
	"strings"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/storage"
)

func normalizeRoomName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// matchRoomMedia attaches locally stored images/amenities to a rate's
// room name: exact match on the normalized name first, then a prefix
// match in either direction, then the hotel-level images as a last
// resort.
//
// The prefix fallback is a known approximation: when two room types
// share a prefix ("Deluxe Room", "Deluxe Room Sea View") it can attach
// the sibling's media. Kept for compatibility with how room names arrive
// from the provider.
func matchRoomMedia(roomName string, groups []storage.RoomGroup, hotelImages []string) ([]string, []string) {
	want := normalizeRoomName(roomName)
	if want != "" {
		for _, g := range groups {
			if normalizeRoomName(g.Name) == want {
				return g.Images, g.Amenities
			}
		}
		for _, g := range groups {
			have := normalizeRoomName(g.Name)
			if have == "" {
				continue
			}
			if strings.HasPrefix(have, want) || strings.HasPrefix(want, have) {
				return g.Images, g.Amenities
			}
		}
	}
	return hotelImages, nil
}
