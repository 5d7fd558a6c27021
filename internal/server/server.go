// Package server exposes the demo API over HTTP: the video feed, rule-based
// ordering, and the model-backed recipe and recommendation routes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/haaangry/hangry/internal/catalog"
	"github.com/haaangry/hangry/internal/config"
	"github.com/haaangry/hangry/internal/feed"
	"github.com/haaangry/hangry/internal/llm"
	"github.com/haaangry/hangry/internal/logging"
	"github.com/haaangry/hangry/internal/recipes"
	"github.com/haaangry/hangry/internal/recommend"
)

// Server holds the wired application state behind the HTTP routes.
type Server struct {
	cfg config.Config
	log *slog.Logger

	catalog     *catalog.Catalog
	rawItems    []map[string]any
	downloadDir string

	recipes     *recipes.Service
	recipeCache *recipes.Cache
	recommend   *recommend.Service
}

// New loads the feed, wires the model client and builds the server. A
// missing feed file or credential degrades the affected routes instead of
// failing startup.
func New(cfg config.Config, log *slog.Logger) *Server {
	items, commonDir, err := feed.LoadRaw(cfg.FeedJSON)
	if err != nil {
		log.Warn("feed json unavailable, serving empty feed", "path", cfg.FeedJSON, "error", err)
	}
	downloadDir := cfg.DownloadDir
	if downloadDir == "" {
		downloadDir = commonDir
	}

	lcfg := llm.Config{
		Provider:              llm.Provider(cfg.LLM.Provider),
		DefaultModelAnthropic: "claude-haiku-4-5",
		Timeout:               time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxOutputTokens:       cfg.LLM.MaxOutputTokens,
		MaxToolRounds:         cfg.LLM.MaxToolRounds,
		DetectEnv:             true,
	}
	switch lcfg.Provider {
	case llm.ProviderOpenAI:
		lcfg.DefaultModelOpenAI = cfg.LLM.Model
	case llm.ProviderGoogle:
		lcfg.DefaultModelGoogle = cfg.LLM.Model
	default:
		lcfg.DefaultModelAnthropic = cfg.LLM.Model
	}
	client := llm.New(lcfg)
	if !client.HasCredential(llm.ProviderAnthropic) {
		log.Warn("anthropic credential missing, recipe and recommendation routes degrade to empty results")
	}

	cat := catalog.Demo()
	return &Server{
		cfg:         cfg,
		log:         log,
		catalog:     cat,
		rawItems:    items,
		downloadDir: downloadDir,
		recipes:     recipes.NewService(client, logging.WithComponent(log, "recipes")),
		recipeCache: recipes.NewCache(time.Duration(cfg.LLM.RecipeCacheTTLSeconds)*time.Second, cfg.LLM.RecipeCacheMaxSize),
		recommend:   recommend.NewService(client, cat, logging.WithComponent(log, "recommend")),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.handleFeed)
	mux.HandleFunc("/order/options", s.handleOrderOptions)
	mux.HandleFunc("/orders", s.handleCreateOrder)
	mux.HandleFunc("/orders/history", s.handleOrdersHistory)
	mux.HandleFunc("/llm/text", s.handleLLMText)
	mux.HandleFunc("/llm/voice", s.handleLLMVoice)
	mux.HandleFunc("/recipes", s.handleRecipes)
	mux.HandleFunc("/recommend", s.handleRecommend)
	mux.HandleFunc("/profile", s.handleProfile)
	if s.downloadDir != "" {
		if _, err := os.Stat(s.downloadDir); err == nil {
			mux.Handle("/videos/", http.StripPrefix("/videos/",
				http.FileServer(http.Dir(s.downloadDir))))
		}
	}
	// Some clients URL-encode the query separator into the path. The
	// fallback rescues those requests.
	mux.HandleFunc("/", s.handleCompat)
	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", s.cfg.Bind)

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleCompat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/recipes"):
		s.serveRecipes(w, r, compatQuery(strings.TrimPrefix(path, "/recipes"), r))
	case strings.HasPrefix(path, "/order/options"):
		s.serveOrderOptions(w, r, compatQuery(strings.TrimPrefix(path, "/order/options"), r))
	default:
		http.NotFound(w, r)
	}
}
