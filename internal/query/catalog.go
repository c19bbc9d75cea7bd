package query

import (
	"context"
	"sort"
	"sync"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// Catalog supplies the descriptive data of a listing owned by another system
type Catalog interface {
	Category(ctx context.Context, id string) (Category, bool, error)
	Images(ctx context.Context, productID string) ([]Image, error)
}

// StaticCatalog is an in-memory Catalog
type StaticCatalog struct {
	mu         sync.RWMutex
	categories map[string]Category
	images     map[string][]Image
}

func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		categories: make(map[string]Category),
		images:     make(map[string][]Image),
	}
}

func (s *StaticCatalog) AddCategory(c Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *StaticCatalog) AddImage(productID string, img Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[productID] = append(s.images[productID], img)
}

func (s *StaticCatalog) Category(_ context.Context, id string) (Category, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok, nil
}

func (s *StaticCatalog) Images(_ context.Context, productID string) ([]Image, error) {
	s.mu.RLock()
	imgs := append(make([]Image, 0, len(s.images[productID])), s.images[productID]...)
	s.mu.RUnlock()

	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].Position < imgs[j].Position })
	return imgs, nil
}
