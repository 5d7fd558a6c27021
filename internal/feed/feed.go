// Package feed loads the scraped video metadata JSON and turns it into the
// playable feed. Only records with a locally downloaded mp4 make the feed;
// remote watch pages do not play in the client.
package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Video is one feed entry.
type Video struct {
	ID           string   `json:"id"`
	URL          string   `json:"url"`
	ThumbURL     string   `json:"thumb_url,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	LikeCount    int      `json:"like_count"`
	CommentCount int      `json:"comment_count"`
}

// LoadRaw reads the category-keyed scrape JSON and flattens it into a single
// record list. The second return is the common parent directory of all
// downloaded files, or "" when none exist on disk.
func LoadRaw(path string) ([]map[string]any, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read feed json: %w", err)
	}
	var byCategory map[string]json.RawMessage
	if err := json.Unmarshal(data, &byCategory); err != nil {
		return nil, "", fmt.Errorf("parse feed json: %w", err)
	}
	var items []map[string]any
	for _, raw := range byCategory {
		var list []map[string]any
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		items = append(items, list...)
	}
	return items, commonDownloadDir(items), nil
}

func commonDownloadDir(items []map[string]any) string {
	var dirs []string
	for _, r := range items {
		dl, _ := r["download_path"].(string)
		if dl == "" {
			continue
		}
		if _, err := os.Stat(dl); err != nil {
			continue
		}
		dirs = append(dirs, filepath.Dir(dl))
	}
	if len(dirs) == 0 {
		return ""
	}
	common := dirs[0]
	for _, d := range dirs[1:] {
		common = commonPath(common, d)
	}
	return common
}

func commonPath(a, b string) string {
	as := strings.Split(filepath.Clean(a), string(filepath.Separator))
	bs := strings.Split(filepath.Clean(b), string(filepath.Separator))
	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	i := 0
	for i < n && as[i] == bs[i] {
		i++
	}
	joined := strings.Join(as[:i], string(filepath.Separator))
	if joined == "" {
		// Absolute paths share only the root.
		return string(filepath.Separator)
	}
	return joined
}

// Build converts raw records into feed entries. mountedDir is the directory
// served under mountedPrefix; records whose downloaded file is not present
// there are dropped.
func Build(items []map[string]any, baseURL, mountedPrefix, mountedDir string) []Video {
	out := make([]Video, 0, len(items))
	for _, r := range items {
		id := stringField(r, "id")
		if id == "" {
			id = stringField(r, "video_id")
		}

		var videoURL string
		if dl := stringField(r, "download_path"); dl != "" && mountedDir != "" {
			name := filepath.Base(dl)
			if _, err := os.Stat(filepath.Join(mountedDir, name)); err == nil {
				videoURL = strings.TrimRight(baseURL, "/") + mountedPrefix + "/" + name
			}
		}
		if videoURL == "" {
			continue
		}

		thumb := stringField(r, "thumbnail")
		if thumb == "" {
			thumb = stringField(r, "thumb_url")
		}
		out = append(out, Video{
			ID:           id,
			URL:          videoURL,
			ThumbURL:     thumb,
			Title:        stringField(r, "title"),
			Description:  stringField(r, "description"),
			Tags:         stringSlice(r, "tags"),
			LikeCount:    intField(r, "like_count"),
			CommentCount: intField(r, "comment_count"),
		})
	}
	return out
}

// Lookup finds the title and description of a video by identifier in the raw
// record list.
func Lookup(items []map[string]any, videoID string) (title, description string, ok bool) {
	for _, r := range items {
		id := stringField(r, "id")
		if id == "" {
			id = stringField(r, "video_id")
		}
		if id == videoID {
			return stringField(r, "title"), stringField(r, "description"), true
		}
	}
	return "", "", false
}

func stringField(r map[string]any, key string) string {
	s, _ := r[key].(string)
	return s
}

func intField(r map[string]any, key string) int {
	switch v := r[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func stringSlice(r map[string]any, key string) []string {
	raw, ok := r[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
