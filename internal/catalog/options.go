package catalog

import "strings"

// OrderItem is a line item with the name and price captured at order time.
type OrderItem struct {
	MenuItemID         string `json:"menu_item_id"`
	NameSnapshot       string `json:"name_snapshot"`
	PriceCentsSnapshot int    `json:"price_cents_snapshot"`
	Quantity           int    `json:"quantity"`
}

// OrderOptions is the one-tap ordering sheet for a video: a guessed intent,
// ranked restaurants, a prefilled cart and extra suggestions.
type OrderOptions struct {
	VideoID        string       `json:"video_id"`
	Intent         string       `json:"intent"`
	TopRestaurants []Restaurant `json:"top_restaurants"`
	Prefill        []OrderItem  `json:"prefill"`
	SuggestedItems []MenuItem   `json:"suggested_items"`
}

// IntentFromText guesses a food intent from a video title or caption.
func IntentFromText(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "ramen"):
		return "Spicy Ramen"
	case strings.Contains(t, "taco"), strings.Contains(t, "birria"):
		return "Birria Tacos"
	case strings.Contains(t, "sushi"), strings.Contains(t, "nigiri"):
		return "Sushi"
	case strings.Contains(t, "burger"), strings.Contains(t, "mcdonald"), strings.Contains(t, "qpc"):
		return "Cheeseburger"
	case strings.Contains(t, "korean"):
		return "Korean Street Food"
	default:
		return "Street Food"
	}
}

// OptionsFor ranks restaurants and prefills a cart for a video using the
// rule-based intent guess.
func (c *Catalog) OptionsFor(videoID, title string) OrderOptions {
	intent := IntentFromText(title)
	lower := strings.ToLower(intent)

	var top []Restaurant
	var prefill []OrderItem
	var suggested []MenuItem
	switch {
	case strings.Contains(lower, "ramen"):
		top = c.pickRestaurants("r1", "r3", "r2")
		prefill = c.prefillFor("m1", 1)
		suggested = c.pickItems("m2", "m4")
	case strings.Contains(lower, "taco"), strings.Contains(lower, "birria"):
		top = c.pickRestaurants("r2", "r1", "r3")
		prefill = c.prefillFor("m3", 1)
		suggested = c.pickItems("m5", "m2")
	case strings.Contains(lower, "sushi"):
		top = c.pickRestaurants("r3", "r1", "r2")
		prefill = c.prefillFor("m4", 1)
		suggested = c.pickItems("m1", "m2")
	default:
		top = c.restaurants
		prefill = c.prefillFor("m5", 2)
		suggested = c.pickItems("m1", "m2", "m4")
	}
	return OrderOptions{
		VideoID:        videoID,
		Intent:         intent,
		TopRestaurants: top,
		Prefill:        prefill,
		SuggestedItems: suggested,
	}
}

func (c *Catalog) pickRestaurants(ids ...string) []Restaurant {
	out := make([]Restaurant, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.restaurantByID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (c *Catalog) pickItems(ids ...string) []MenuItem {
	out := make([]MenuItem, 0, len(ids))
	for _, id := range ids {
		if m, ok := c.itemByID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *Catalog) prefillFor(itemID string, qty int) []OrderItem {
	m, ok := c.itemByID[itemID]
	if !ok {
		return nil
	}
	return []OrderItem{{
		MenuItemID:         m.ID,
		NameSnapshot:       m.Name,
		PriceCentsSnapshot: m.PriceCents,
		Quantity:           qty,
	}}
}
