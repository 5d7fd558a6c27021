package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/haaangry/hangry/internal/catalog"
	"github.com/haaangry/hangry/internal/feed"
	"github.com/haaangry/hangry/internal/recipes"
)

// Order is a placed order. Identifier and status are filled server-side.
type Order struct {
	ID               string              `json:"id"`
	UserID           string              `json:"user_id"`
	RestaurantID     string              `json:"restaurant_id"`
	Status           string              `json:"status"`
	Items            []catalog.OrderItem `json:"items"`
	SubtotalCents    int                 `json:"subtotal_cents"`
	DeliveryFeeCents int                 `json:"delivery_fee_cents"`
	TotalCents       int                 `json:"total_cents"`
	ETAMinutes       int                 `json:"eta_minutes"`
}

type llmTextRequest struct {
	UserText      string `json:"user_text"`
	RecentVideoID string `json:"recent_video_id"`
}

type llmVoiceRequest struct {
	Transcript    string `json:"transcript"`
	RecentVideoID string `json:"recent_video_id"`
}

type recommendRequest struct {
	VideoID string `json:"video_id"`
	Intent  string `json:"intent"`
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	base := s.cfg.BaseURL
	if base == "" {
		base = scheme + "://" + r.Host
	}
	videos := feed.Build(s.rawItems, base, "/videos", s.downloadDir)
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleOrderOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.serveOrderOptions(w, r, r.URL.Query())
}

func (s *Server) serveOrderOptions(w http.ResponseWriter, r *http.Request, q url.Values) {
	videoID := q.Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "video_id missing")
		return
	}
	title := q.Get("title")
	if title == "" {
		if t, _, ok := feed.Lookup(s.rawItems, videoID); ok {
			title = t
		}
	}
	writeJSON(w, http.StatusOK, s.catalog.OptionsFor(videoID, title))
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var order Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order body")
		return
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.Status = "confirmed"
	order.ETAMinutes = 30
	if order.SubtotalCents == 0 {
		for _, it := range order.Items {
			order.SubtotalCents += it.PriceCentsSnapshot * it.Quantity
		}
	}
	if order.TotalCents == 0 {
		order.TotalCents = order.SubtotalCents + order.DeliveryFeeCents
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleOrdersHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]Order{"orders": {}})
}

func (s *Server) handleLLMText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req llmTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.serveIntent(w, req.RecentVideoID, req.UserText)
}

func (s *Server) handleLLMVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req llmVoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.serveIntent(w, req.RecentVideoID, req.Transcript)
}

func (s *Server) serveIntent(w http.ResponseWriter, videoID, text string) {
	if videoID == "" {
		videoID = "demo"
	}
	opts := s.catalog.OptionsFor(videoID, text)
	writeJSON(w, http.StatusOK, map[string]any{
		"intent":          opts.Intent,
		"top_restaurants": opts.TopRestaurants,
	})
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.serveRecipes(w, r, r.URL.Query())
}

func (s *Server) serveRecipes(w http.ResponseWriter, r *http.Request, q url.Values) {
	videoID := q.Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "video_id missing")
		return
	}
	title := strings.TrimSpace(q.Get("title"))
	desc := strings.TrimSpace(q.Get("description"))
	if title == "" && desc == "" {
		if t, d, ok := feed.Lookup(s.rawItems, videoID); ok {
			title, desc = strings.TrimSpace(t), strings.TrimSpace(d)
		}
	}
	video := recipes.VideoMeta{ID: videoID, Title: title, Description: desc}

	if cached, ok := s.recipeCache.Get(video); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	result := s.recipes.Lookup(r.Context(), video)
	s.recipeCache.Set(video, result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	intent := strings.TrimSpace(req.Intent)
	if intent == "" {
		title, _, _ := feed.Lookup(s.rawItems, req.VideoID)
		intent = catalog.IntentFromText(title)
	}
	writeJSON(w, http.StatusOK, s.recommend.Recommend(r.Context(), req.VideoID, intent))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Profile)
}

// compatQuery recovers query parameters that were percent-encoded into the
// path, like "/recipes%3Fvideo_id%3Dabc". The mux hands us the decoded
// remainder; real query parameters still win when present.
func compatQuery(rest string, r *http.Request) url.Values {
	q := strings.TrimPrefix(strings.TrimPrefix(rest, "/"), "?")
	if unescaped, err := url.QueryUnescape(q); err == nil {
		q = unescaped
	}
	params, err := url.ParseQuery(q)
	if err != nil {
		params = url.Values{}
	}
	for k, vs := range r.URL.Query() {
		params[k] = vs
	}
	return params
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
