package recall

import "github.com/rushteam/tripkit/core"

func testPlaces() []core.Recommendable {
	return []core.Recommendable{
		&core.Attraction{ID: "louvre", Name: "Louvre Museum", Description: "World famous art museum with classical paintings",
			Tags: []string{"museum", "art", "history"}, Rating: 4.8, ReviewCount: 500, Popularity: 95},
		&core.Attraction{ID: "orsay", Name: "Orsay Museum", Description: "Impressionist art in a former railway station",
			Tags: []string{"museum", "art", "impressionism"}, Rating: 4.7, ReviewCount: 300, Popularity: 80},
		&core.Attraction{ID: "eiffel", Name: "Eiffel Tower", Description: "Iron landmark with panoramic city views",
			Tags: []string{"landmark", "view"}, Rating: 4.6, ReviewCount: 800, Popularity: 99},
		&core.Attraction{ID: "luxembourg", Name: "Luxembourg Gardens", Description: "Quiet park with fountains and lawns",
			Tags: []string{"park", "nature"}, Rating: 4.5, ReviewCount: 60, Popularity: 40},
		&core.Restaurant{ID: "bistro", Name: "Le Petit Bistro", Cuisine: "french", Description: "Classic bistro dishes and wine",
			Tags: []string{"french", "wine"}, Rating: 4.2, ReviewCount: 120, Popularity: 50},
		&core.Restaurant{ID: "ramen", Name: "Ramen Kaze", Cuisine: "japanese", Description: "Rich tonkotsu noodle soup",
			Tags: []string{"japanese", "noodles"}, Rating: 4.4, ReviewCount: 90, Popularity: 45},
		&core.Hotel{ID: "lumiere", Name: "Hotel Lumiere", Description: "Boutique hotel near the river",
			Tags: []string{"boutique", "luxury"}, Stars: 4, Rating: 4.3, ReviewCount: 40, Popularity: 30},
	}
}

func testInteractions() []core.Interaction {
	return []core.Interaction{
		{UserID: "alice", PlaceID: "louvre", Rating: 5},
		{UserID: "alice", PlaceID: "orsay", Rating: 4},
		{UserID: "alice", PlaceID: "bistro", Rating: 3},
		{UserID: "bob", PlaceID: "eiffel", Rating: 5},
		{UserID: "bob", PlaceID: "luxembourg", Rating: 4},
		{UserID: "bob", PlaceID: "ramen", Rating: 4},
		{UserID: "carol", PlaceID: "louvre", Rating: 4},
		{UserID: "carol", PlaceID: "eiffel", Rating: 3},
		{UserID: "carol", PlaceID: "lumiere", Rating: 5},
	}
}

func ids(s []Scored) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = x.ID
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
