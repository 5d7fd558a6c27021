// Package catalog holds the in-memory restaurant and menu catalog plus the
// rule-based ordering options used by the demo routes.
package catalog

type Restaurant struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	LogoURL          string `json:"logo_url,omitempty"`
	DeliveryETAMin   int    `json:"delivery_eta_min"`
	DeliveryETAMax   int    `json:"delivery_eta_max"`
	DeliveryFeeCents int    `json:"delivery_fee_cents"`
}

type MenuItem struct {
	ID           string   `json:"id"`
	RestaurantID string   `json:"restaurant_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	PriceCents   int      `json:"price_cents"`
	ImageURL     string   `json:"image_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Catalog is an immutable snapshot of restaurants and their menus. Lookups
// are by identifier; unresolvable identifiers simply miss.
type Catalog struct {
	restaurants []Restaurant
	items       []MenuItem

	restaurantByID map[string]Restaurant
	itemByID       map[string]MenuItem
}

// New builds a catalog with identifier indexes.
func New(restaurants []Restaurant, items []MenuItem) *Catalog {
	c := &Catalog{
		restaurants:    restaurants,
		items:          items,
		restaurantByID: make(map[string]Restaurant, len(restaurants)),
		itemByID:       make(map[string]MenuItem, len(items)),
	}
	for _, r := range restaurants {
		c.restaurantByID[r.ID] = r
	}
	for _, m := range items {
		c.itemByID[m.ID] = m
	}
	return c
}

// Demo returns the fixed demo catalog.
func Demo() *Catalog {
	return New(
		[]Restaurant{
			{ID: "r1", Name: "Ramen Cart", DeliveryETAMin: 25, DeliveryETAMax: 40, DeliveryFeeCents: 199},
			{ID: "r2", Name: "Taco Truck Co", DeliveryETAMin: 20, DeliveryETAMax: 35, DeliveryFeeCents: 299},
			{ID: "r3", Name: "Sushi Bar", DeliveryETAMin: 30, DeliveryETAMax: 50, DeliveryFeeCents: 399},
		},
		[]MenuItem{
			{ID: "m1", RestaurantID: "r1", Name: "Spicy Tonkotsu Ramen", Description: "Rich pork broth", PriceCents: 1399, Tags: []string{"ramen", "spicy"}},
			{ID: "m2", RestaurantID: "r1", Name: "Gyoza (6pc)", Description: "Pork dumplings", PriceCents: 599, Tags: []string{"dumplings"}},
			{ID: "m3", RestaurantID: "r2", Name: "Birria Tacos", Description: "Crispy with consommé", PriceCents: 1299, Tags: []string{"taco", "birria"}},
			{ID: "m4", RestaurantID: "r3", Name: "Salmon Nigiri (6)", Description: "Fresh cut", PriceCents: 1499, Tags: []string{"sushi"}},
			{ID: "m5", RestaurantID: "r2", Name: "Al Pastor Taco", PriceCents: 399, Tags: []string{"taco"}},
		},
	)
}

// Restaurants returns the catalog order.
func (c *Catalog) Restaurants() []Restaurant { return c.restaurants }

// Items returns all menu items.
func (c *Catalog) Items() []MenuItem { return c.items }

// Restaurant resolves a restaurant identifier.
func (c *Catalog) Restaurant(id string) (Restaurant, bool) {
	r, ok := c.restaurantByID[id]
	return r, ok
}

// Item resolves a menu item identifier.
func (c *Catalog) Item(id string) (MenuItem, bool) {
	m, ok := c.itemByID[id]
	return m, ok
}

// ItemsFor returns the menu of one restaurant, in catalog order.
func (c *Catalog) ItemsFor(restaurantID string) []MenuItem {
	var out []MenuItem
	for _, m := range c.items {
		if m.RestaurantID == restaurantID {
			out = append(out, m)
		}
	}
	return out
}
