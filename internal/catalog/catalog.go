// Package catalog owns the in-memory Document and Category collections and
// mirrors every mutation to a storage.Provider.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/starford/docuflow/internal/apperr"
	"github.com/starford/docuflow/internal/models"
	"github.com/starford/docuflow/internal/storage"
)

// Storage keys of the two persisted collections.
const (
	DocumentsKey  = "docuflow_documents"
	CategoriesKey = "docuflow_categories"
)

// ChangeKind identifies what happened to the catalog.
type ChangeKind string

const (
	DocumentCreated ChangeKind = "document.created"
	DocumentDeleted ChangeKind = "document.deleted"
	CategoryCreated ChangeKind = "category.created"
	Reloaded        ChangeKind = "catalog.reloaded"
)

// Change describes one catalog mutation. ID is empty for Reloaded.
type Change struct {
	Kind ChangeKind
	ID   string
}

// Observer is notified after each mutation has been applied.
type Observer func(Change)

// Option configures a Store.
type Option func(*Store)

// WithObserver registers fn to be called after every mutation.
func WithObserver(fn Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, fn)
	}
}

// Store holds both collections. Documents are kept newest-first, categories
// in insertion order.
type Store struct {
	kv        storage.Provider
	observers []Observer

	mu         sync.RWMutex
	documents  []models.Document
	categories []models.Category
}

// New creates an empty Store backed by kv. Call Load before use.
func New(kv storage.Provider, opts ...Option) *Store {
	s := &Store{kv: kv}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a Store and loads it.
func Open(kv storage.Provider, opts ...Option) (*Store, error) {
	s := New(kv, opts...)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory collections with the persisted ones. A missing
// or empty categories entry yields the default categories. Malformed stored
// data is returned as an error and leaves the store untouched.
func (s *Store) Load() error {
	docs, cats, err := s.read()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.documents = docs
	s.categories = cats
	s.mu.Unlock()
	return nil
}

// Reload is Load followed by a Reloaded notification.
func (s *Store) Reload() error {
	if err := s.Load(); err != nil {
		return err
	}
	s.notify(Change{Kind: Reloaded})
	return nil
}

func (s *Store) read() ([]models.Document, []models.Category, error) {
	var docs []models.Document
	if err := s.readKey(DocumentsKey, &docs); err != nil {
		return nil, nil, err
	}
	var cats []models.Category
	if err := s.readKey(CategoriesKey, &cats); err != nil {
		return nil, nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	if len(cats) == 0 {
		cats = models.DefaultCategories()
	}
	return docs, cats, nil
}

func (s *Store) readKey(key string, target any) error {
	data, err := s.kv.Get(key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("catalog: load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", key, err)
	}
	return nil
}

// Documents returns a copy of all documents, newest first.
func (s *Store) Documents() []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.documents)
}

// Categories returns a copy of all categories in insertion order.
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// DocumentCount returns the number of documents.
func (s *Store) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// CategoryCount returns the number of categories.
func (s *Store) CategoryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories)
}

// Category looks up a category by id.
func (s *Store) Category(id string) (models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.categories, func(c models.Category) bool { return c.ID == id })
	if i < 0 {
		return models.Category{}, false
	}
	return s.categories[i], true
}

// Document looks up a document by id.
func (s *Store) Document(id string) (models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.documents, func(d models.Document) bool { return d.ID == id })
	if i < 0 {
		return models.Document{}, false
	}
	return s.documents[i], true
}

// AddDocument prepends doc and persists the document collection.
// The in-memory change stays even if the write fails.
func (s *Store) AddDocument(doc models.Document) error {
	s.mu.Lock()
	s.documents = slices.Insert(s.documents, 0, doc)
	err := s.persist(DocumentsKey, s.documents)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(Change{Kind: DocumentCreated, ID: doc.ID})
	return nil
}

// RemoveDocument drops the first document with the given id and persists
// the collection, even when nothing matched. It reports whether a document
// was removed.
func (s *Store) RemoveDocument(id string) (bool, error) {
	s.mu.Lock()
	i := slices.IndexFunc(s.documents, func(d models.Document) bool { return d.ID == id })
	removed := i >= 0
	if removed {
		s.documents = slices.Delete(s.documents, i, i+1)
	}
	err := s.persist(DocumentsKey, s.documents)
	s.mu.Unlock()
	if err != nil {
		return removed, err
	}
	if removed {
		s.notify(Change{Kind: DocumentDeleted, ID: id})
	}
	return removed, nil
}

// AddCategory appends cat and persists the category collection.
func (s *Store) AddCategory(cat models.Category) error {
	s.mu.Lock()
	s.categories = append(s.categories, cat)
	err := s.persist(CategoriesKey, s.categories)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(Change{Kind: CategoryCreated, ID: cat.ID})
	return nil
}

// persist writes the whole collection under key. Caller holds s.mu.
func (s *Store) persist(key string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", key, err)
	}
	if err := s.kv.Set(key, data); err != nil {
		return fmt.Errorf("catalog: save %s: %w", key, err)
	}
	return nil
}

func (s *Store) notify(c Change) {
	for _, fn := range s.observers {
		fn(c)
	}
}

// Encode serializes v as compact JSON without HTML escaping, so stored
// collections re-encode to identical bytes.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return rawLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

var lineSepEscape = []byte(`\u202`)

// rawLineSeparators rewrites the \u2028 and \u2029 escapes encoding/json
// always emits back to the raw characters. An escaped backslash followed by
// "u2028" is left alone.
func rawLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, lineSepEscape) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 == len(b) {
			out = append(out, b[i])
			continue
		}
		if i+6 <= len(b) && bytes.Equal(b[i:i+5], lineSepEscape) {
			switch b[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}
