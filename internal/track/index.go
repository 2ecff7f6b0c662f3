package track

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/MatFrancois/opotopo/internal/hike"
	"github.com/MatFrancois/opotopo/internal/shared/fetch"
)

// Entry is one item of the track index file.
type Entry struct {
	RID hike.Value `json:"rid"`
	ID  hike.Value `json:"id"`
	KML []string   `json:"kml_urls"`
	GPX []string   `json:"gpx_urls"`
}

// Key is the row identifier the entry belongs to.
func (e Entry) Key() string {
	if e.RID != "" {
		return e.RID.String()
	}
	return e.ID.String()
}

// URLs returns the KML list when the entry has one, else the GPX list.
func (e Entry) URLs() []string {
	if e.KML != nil {
		return e.KML
	}
	return e.GPX
}

// Index maps a row identifier to its ordered track URLs. It is read-only
// once loaded.
type Index map[string][]string

func (idx Index) Lookup(id string) []string {
	return idx[id]
}

// First returns the preferred track URL for id.
func (idx Index) First(id string) (string, bool) {
	urls := idx[id]
	if len(urls) == 0 {
		return "", false
	}
	return urls[0], true
}

func ParseIndex(data []byte) (Index, error) {
	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse track index: %w", err)
	}
	idx := make(Index, len(entries))
	for _, e := range entries {
		if e == nil || e.Key() == "" {
			continue
		}
		urls := e.URLs()
		if urls == nil {
			urls = []string{}
		}
		idx[e.Key()] = urls
	}
	return idx, nil
}

// LoadIndex reads the track index. Failure is advisory: the caller gets an
// empty index alongside the error and the map simply shows no tracks.
func LoadIndex(ctx context.Context, client *http.Client, path string) (Index, error) {
	data, err := fetch.Read(ctx, client, path)
	if err != nil {
		log.Printf("track index unavailable (%s): %v", path, err)
		return Index{}, err
	}
	idx, err := ParseIndex(data)
	if err != nil {
		log.Printf("track index unreadable (%s): %v", path, err)
		return Index{}, err
	}
	return idx, nil
}
