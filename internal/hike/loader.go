package hike

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/MatFrancois/opotopo/internal/shared/fetch"
)

// Loader produces the full catalogue once at startup.
type Loader interface {
	Load(ctx context.Context) ([]Hike, error)
}

type JSONLoader struct {
	client *http.Client
	path   string
}

func NewJSONLoader(client *http.Client, path string) *JSONLoader {
	return &JSONLoader{client: client, path: path}
}

func (l *JSONLoader) Load(ctx context.Context) ([]Hike, error) {
	data, err := fetch.Read(ctx, l.client, l.path)
	if err != nil {
		log.Printf("dataset load failed: %v", err)
		return nil, fmt.Errorf("load %s: %w", l.path, err)
	}
	hikes, err := Decode(data)
	if err != nil {
		log.Printf("dataset parse failed: %v", err)
		return nil, err
	}
	return hikes, nil
}

// Decode parses the dataset: a JSON array of hike objects.
func Decode(data []byte) ([]Hike, error) {
	var hikes []Hike
	if err := json.Unmarshal(data, &hikes); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return hikes, nil
}
