// Package recommend produces restaurant and menu recommendations for a
// video by asking the model to pick identifiers out of the catalog. Picks
// that do not resolve against the catalog are dropped silently.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/haaangry/hangry/internal/catalog"
	"github.com/haaangry/hangry/internal/llm"
)

const (
	maxRestaurants  = 3
	maxItemsPerPick = 3
)

// Item is a recommended menu item.
type Item struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
}

// Block groups recommended items under one restaurant.
type Block struct {
	RestaurantID   string `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Items          []Item `json:"items"`
	AvgPriceCents  int    `json:"avg_price_cents"`
}

// Result is the recommendation response for one video.
type Result struct {
	OK              bool    `json:"ok"`
	VideoID         string  `json:"video_id"`
	Intent          string  `json:"intent"`
	Recommendations []Block `json:"recommendations"`
}

// picks is the shape the model is asked to emit.
type picks struct {
	Restaurants []struct {
		RestaurantID string   `json:"restaurant_id" description:"Identifier of a restaurant from the catalog"`
		ItemIDs      []string `json:"item_ids" description:"Identifiers of menu items at that restaurant, best first"`
	} `json:"restaurants" description:"Exactly three restaurants, best match first"`
}

var picksSchema = llm.MustSchemaOf(picks{})

// Service produces recommendations against a structured invoker and the
// demo catalog.
type Service struct {
	inv llm.Invoker
	cat *catalog.Catalog
	log *slog.Logger
}

// NewService wires a recommendation service.
func NewService(inv llm.Invoker, cat *catalog.Catalog, log *slog.Logger) *Service {
	return &Service{inv: inv, cat: cat, log: log}
}

// Recommend asks for three restaurants with three items each and resolves
// the picks against the catalog. A failed call yields an empty list rather
// than an error; fewer resolvable picks are returned as-is.
func (s *Service) Recommend(ctx context.Context, videoID, intent string) Result {
	res := Result{OK: true, VideoID: videoID, Intent: intent, Recommendations: []Block{}}

	out, err := llm.InvokeWithRetry(ctx, s.inv, s.request(intent))
	if err != nil {
		if errors.Is(err, llm.ErrMissingCredential) {
			s.log.Warn("recommendation disabled, credential missing")
		} else {
			s.log.Info("recommendation call failed", "error", err)
		}
		return res
	}

	var parsed picks
	if err := json.Unmarshal(out.Canonical, &parsed); err != nil {
		s.log.Debug("recommendation decode failed", "error", err)
		return res
	}

	res.Recommendations = s.resolve(parsed)
	return res
}

func (s *Service) resolve(parsed picks) []Block {
	blocks := make([]Block, 0, maxRestaurants)
	seen := make(map[string]bool, maxRestaurants)
	for _, pick := range parsed.Restaurants {
		if len(blocks) == maxRestaurants {
			break
		}
		r, ok := s.cat.Restaurant(pick.RestaurantID)
		if !ok || seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		items := make([]Item, 0, maxItemsPerPick)
		seenItems := make(map[string]bool, maxItemsPerPick)
		sum := 0
		for _, id := range pick.ItemIDs {
			if len(items) == maxItemsPerPick {
				break
			}
			m, ok := s.cat.Item(id)
			if !ok || m.RestaurantID != r.ID || seenItems[m.ID] {
				continue
			}
			seenItems[m.ID] = true
			items = append(items, Item{ID: m.ID, Name: m.Name, PriceCents: m.PriceCents})
			sum += m.PriceCents
		}
		if len(items) == 0 {
			continue
		}
		blocks = append(blocks, Block{
			RestaurantID:   r.ID,
			RestaurantName: r.Name,
			Items:          items,
			AvgPriceCents:  int(math.Round(float64(sum) / float64(len(items)))),
		})
	}
	return blocks
}

func (s *Service) request(intent string) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "You pick food delivery recommendations from a fixed catalog.\n")
	fmt.Fprintf(&b, "Craving: %s\n\nCatalog:\n", intent)
	for _, r := range s.cat.Restaurants() {
		fmt.Fprintf(&b, "Restaurant %s: %s (delivery %d-%d min, fee %d cents)\n",
			r.ID, r.Name, r.DeliveryETAMin, r.DeliveryETAMax, r.DeliveryFeeCents)
		for _, m := range s.cat.ItemsFor(r.ID) {
			fmt.Fprintf(&b, "  Item %s: %s, %d cents", m.ID, m.Name, m.PriceCents)
			if len(m.Tags) > 0 {
				fmt.Fprintf(&b, " [%s]", strings.Join(m.Tags, ", "))
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\nPick exactly %d restaurants that best match the craving, "+
		"and for each exactly %d of its menu items. Use only identifiers from the catalog.",
		maxRestaurants, maxItemsPerPick)

	// No web tools here, so any configured provider can serve the call.
	return llm.Request{
		Prompt: b.String(),
		Schema: picksSchema,
	}
}
