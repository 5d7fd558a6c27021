// Package recipes looks up recipe links on the public web for a feed video.
// It runs one web-augmented model call per link category and merges the
// results into a single ordered list. Lookups degrade to an empty list
// instead of failing.
package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/haaangry/hangry/internal/llm"
)

const (
	labelArticle = "article"
	labelYouTube = "youtube"

	linksPerCategory = 3
)

// Link is one recipe source. Label says which category produced it.
type Link struct {
	Label string `json:"label"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// Result is the recipe lookup response for one video.
type Result struct {
	OK      bool   `json:"ok"`
	VideoID string `json:"video_id"`
	Query   string `json:"query"`
	Links   []Link `json:"links"`
}

// VideoMeta is the input to a lookup.
type VideoMeta struct {
	ID          string
	Title       string
	Description string
}

// linkList is the shape the model is asked to emit.
type linkList struct {
	Links []struct {
		Title string `json:"title" description:"Page or video title"`
		URL   string `json:"url" description:"Absolute HTTP(S) URL"`
	} `json:"links" description:"Recipe sources, best match first"`
}

var linkListSchema = llm.MustSchemaOf(linkList{})

// Service runs recipe lookups against a structured invoker.
type Service struct {
	inv llm.Invoker
	log *slog.Logger
}

// NewService wires a lookup service. The invoker must support web tools.
func NewService(inv llm.Invoker, log *slog.Logger) *Service {
	return &Service{inv: inv, log: log}
}

// Lookup finds up to three article links and three YouTube links for a
// video. The two categories run concurrently; a failed category contributes
// nothing rather than failing the lookup.
func (s *Service) Lookup(ctx context.Context, video VideoMeta) Result {
	query := buildQuery(video)

	var wg sync.WaitGroup
	var articles, videos []Link
	wg.Add(2)
	go func() {
		defer wg.Done()
		articles = s.lookupCategory(ctx, labelArticle, articleRequest(video))
	}()
	go func() {
		defer wg.Done()
		videos = s.lookupCategory(ctx, labelYouTube, youtubeRequest(video))
	}()
	wg.Wait()

	return Result{
		OK:      true,
		VideoID: video.ID,
		Query:   query,
		Links:   mergeLinks(articles, videos),
	}
}

func (s *Service) lookupCategory(ctx context.Context, label string, req llm.Request) []Link {
	res, err := llm.InvokeWithRetry(ctx, s.inv, req)
	if err != nil {
		s.logLookupErr(label, err)
		return nil
	}

	var parsed linkList
	if err := json.Unmarshal(res.Canonical, &parsed); err != nil {
		s.log.Debug("recipe link decode failed", "label", label, "error", err)
		return nil
	}

	links := make([]Link, 0, linksPerCategory)
	for _, l := range parsed.Links {
		u := strings.TrimSpace(l.URL)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		links = append(links, Link{Label: label, Title: strings.TrimSpace(l.Title), URL: u})
		if len(links) == linksPerCategory {
			break
		}
	}
	if len(links) > 0 {
		return links
	}

	// The model sometimes emits an empty list even though the search ran.
	// Fall back to the pages it actually cited.
	for _, c := range res.Citations {
		links = append(links, Link{Label: label, URL: c.URL})
		if len(links) == linksPerCategory {
			break
		}
	}
	return links
}

func (s *Service) logLookupErr(label string, err error) {
	if errors.Is(err, llm.ErrMissingCredential) {
		s.log.Warn("recipe lookup disabled, credential missing", "label", label)
		return
	}
	s.log.Info("recipe lookup failed", "label", label, "error", err)
}

// mergeLinks keeps category order (articles first) and drops duplicate URLs,
// first occurrence wins.
func mergeLinks(articles, videos []Link) []Link {
	out := make([]Link, 0, len(articles)+len(videos))
	seen := make(map[string]bool, len(articles)+len(videos))
	for _, l := range append(articles, videos...) {
		if seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		out = append(out, l)
	}
	return out
}

func buildQuery(video VideoMeta) string {
	title := strings.TrimSpace(video.Title)
	desc := strings.TrimSpace(video.Description)
	switch {
	case title != "" && desc != "":
		return title + " - " + desc
	case title != "":
		return title
	case desc != "":
		return desc
	default:
		return "N/A"
	}
}

func articleRequest(video VideoMeta) llm.Request {
	prompt := fmt.Sprintf(
		"You are an assistant that finds cooking recipes on the web.\n"+
			"Video title: %s\nVideo description: %s\n\n"+
			"Task: Search the public web for high-quality recipe pages that match the most likely dish.\n"+
			"Prefer reputable food sites and original sources. Avoid spam and video-only pages.\n"+
			"Emit up to %d links, best match first. Ensure absolute HTTP(S) URLs.",
		orNA(video.Title), orNA(video.Description), linksPerCategory)
	return llm.Request{
		Provider:      llm.ProviderAnthropic,
		Prompt:        prompt,
		Schema:        linkListSchema,
		WebSearch:     true,
		WebFetch:      true,
		CitationLabel: labelArticle,
		MaxCitations:  linksPerCategory,
	}
}

func youtubeRequest(video VideoMeta) llm.Request {
	prompt := fmt.Sprintf(
		"You are an assistant that finds recipe videos on YouTube.\n"+
			"Video title: %s\nVideo description: %s\n\n"+
			"Task: Search site:youtube.com for videos that teach how to cook the most likely dish.\n"+
			"Emit up to %d links to YouTube watch pages, best match first. Ensure absolute HTTP(S) URLs.",
		orNA(video.Title), orNA(video.Description), linksPerCategory)
	return llm.Request{
		Provider:      llm.ProviderAnthropic,
		Prompt:        prompt,
		Schema:        linkListSchema,
		WebSearch:     true,
		CitationLabel: labelYouTube,
		MaxCitations:  linksPerCategory,
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
