package storage

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"inkwell/pkg/errors"
	"inkwell/pkg/models"
	"inkwell/pkg/utils"
)

// reloadDebounce coalesces bursts of external writes to the
// collection file into one reload.
const reloadDebounce = 300 * time.Millisecond

// DocumentStore is the authoritative document collection, backed by a
// single JSON file holding an ordered array of records. Every
// mutating operation persists synchronously before returning.
//
// The store watches the collection file for external writes and
// reloads when one is detected; its own writes are recognized by
// tracked modification times and skipped.
type DocumentStore struct {
	path        string
	cache       *RichCacheStore
	mutex       sync.RWMutex
	docs        map[string]*models.Document
	order       []string
	watcher     *fsnotify.Watcher
	debouncer   *Debouncer
	fileModTime time.Time
}

// legacyDocument is the collection record shape prior to rich content
// support: no id, no timestamps beyond a single optional date, no rich
// fields.
type legacyDocument struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Date    *time.Time `json:"date,omitempty"`
}

// NewDocumentStore creates a document store persisting to path, with
// cache handling the rich blob files referenced by its records.
func NewDocumentStore(path string, cache *RichCacheStore) *DocumentStore {
	store := &DocumentStore{
		path:      path,
		cache:     cache,
		docs:      make(map[string]*models.Document),
		debouncer: NewDebouncer(reloadDebounce),
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create data directory %s: %v", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("Warning: Could not create file watcher: %v", err)
	} else {
		store.watcher = watcher
		if err := watcher.Add(dir); err != nil {
			log.Printf("Warning: Could not watch data directory: %v", err)
		}
	}

	store.startWatching()
	return store
}

// Path returns the collection file path.
func (s *DocumentStore) Path() string {
	return s.path
}

// startWatching starts the file system watcher goroutine
func (s *DocumentStore) startWatching() {
	if s.watcher == nil {
		return
	}

	go func() {
		for {
			select {
			case event, ok := <-s.watcher.Events:
				if !ok {
					return
				}
				// Only the collection file itself is interesting
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					s.debouncer.Debounce(s.path, s.handleExternalChange)
				}

			case err, ok := <-s.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Watcher error: %v", err)
			}
		}
	}()
}

// handleExternalChange reloads the collection after an external write.
func (s *DocumentStore) handleExternalChange() {
	fileInfo, err := os.Stat(s.path)
	if err != nil {
		log.Printf("Error getting file info for %s: %v", s.path, err)
		return
	}

	s.mutex.RLock()
	own := !fileInfo.ModTime().After(s.fileModTime)
	s.mutex.RUnlock()
	if own {
		return // our own write
	}

	log.Printf("Collection file changed externally, reloading: %s", s.path)
	if _, err := s.LoadAll(); err != nil {
		log.Printf("Error reloading collection: %v", err)
	}
}

// LoadAll reads the collection file and replaces the in-memory
// collection with its contents. A file in the legacy schema is
// migrated (fresh IDs and timestamps for missing fields) and
// immediately re-saved in the current schema, so migration runs at
// most once per file. A file matching neither schema yields an empty
// collection and is left untouched on disk for manual recovery.
func (s *DocumentStore) LoadAll() ([]*models.Document, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.docs = make(map[string]*models.Document)
		s.order = nil
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeFileSystem, "COLLECTION_READ_FAILED",
			"failed to read collection file").WithContext("path", s.path)
	}

	docs, migrated, err := parseCollection(data)
	if err != nil {
		// Neither schema matched. Keep the file intact and start empty.
		appErr := errors.Wrap(err, errors.ErrTypeSchema, "SCHEMA_MISMATCH",
			"collection file does not match current or legacy schema").
			WithContext("path", s.path)
		appErr.Log()
		s.docs = make(map[string]*models.Document)
		s.order = nil
		return nil, nil
	}

	s.docs = make(map[string]*models.Document, len(docs))
	s.order = s.order[:0]
	for _, doc := range docs {
		// Hand-edited files can carry the same id twice; keep the
		// first record so the duplicate doesn't survive the next save
		if _, exists := s.docs[doc.ID]; exists {
			log.Printf("Dropping duplicate record %s in %s", doc.ID, s.path)
			continue
		}
		s.docs[doc.ID] = doc
		s.order = append(s.order, doc.ID)
	}

	if migrated {
		log.Printf("Migrated %d legacy records in %s", len(docs), s.path)
		if err := s.saveAllLocked(); err != nil {
			log.Printf("Error re-saving migrated collection: %v", err)
		}
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		s.fileModTime = fileInfo.ModTime()
	}

	return s.documentsLocked(), nil
}

// documentsLocked returns clones of the collection in stored order.
// Caller must hold at least the read lock.
func (s *DocumentStore) documentsLocked() []*models.Document {
	docs := make([]*models.Document, 0, len(s.order))
	for _, id := range s.order {
		if doc, ok := s.docs[id]; ok {
			docs = append(docs, doc.Clone())
		}
	}
	return docs
}

// parseCollection tries the current schema first, then the legacy one.
// It reports whether a legacy migration took place.
func parseCollection(data []byte) ([]*models.Document, bool, error) {
	var docs []*models.Document
	if err := json.Unmarshal(data, &docs); err == nil && allHaveIDs(docs) {
		return docs, false, nil
	}

	var legacy []legacyDocument
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, false, err
	}

	now := time.Now()
	migrated := make([]*models.Document, 0, len(legacy))
	for _, rec := range legacy {
		created := now
		modified := now
		if rec.Date != nil {
			created = *rec.Date
			modified = *rec.Date
		}
		migrated = append(migrated, &models.Document{
			ID:         utils.GenerateShortUUID(),
			Title:      rec.Title,
			PlainText:  rec.Content,
			CreatedAt:  created,
			ModifiedAt: modified,
		})
	}
	return migrated, true, nil
}

// allHaveIDs reports whether every record carries an identifier. A
// record without one signals the legacy schema.
func allHaveIDs(docs []*models.Document) bool {
	for _, doc := range docs {
		if doc == nil || doc.ID == "" {
			return false
		}
	}
	return true
}

// SaveAll replaces the on-disk collection with the given documents.
func (s *DocumentStore) SaveAll(docs []*models.Document) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.docs = make(map[string]*models.Document, len(docs))
	s.order = s.order[:0]
	for _, doc := range docs {
		c := doc.Clone()
		s.docs[c.ID] = c
		s.order = append(s.order, c.ID)
	}
	return s.saveAllLocked()
}

// saveAllLocked serializes the collection in stored order and writes
// it via a temporary file so the collection file is never left
// truncated. Caller must hold the write lock.
func (s *DocumentStore) saveAllLocked() error {
	docs := make([]*models.Document, 0, len(s.order))
	for _, id := range s.order {
		if doc, ok := s.docs[id]; ok {
			docs = append(docs, doc)
		}
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "COLLECTION_WRITE_FAILED",
			"failed to marshal collection")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "COLLECTION_WRITE_FAILED",
			"failed to create data directory").WithContext("path", s.path)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "COLLECTION_WRITE_FAILED",
			"failed to create temporary collection file").WithContext("path", s.path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, errors.ErrTypeFileSystem, "COLLECTION_WRITE_FAILED",
			"failed to write collection file").WithContext("path", s.path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, errors.ErrTypeFileSystem, "COLLECTION_WRITE_FAILED",
			"failed to close collection file").WithContext("path", s.path)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, errors.ErrTypeFileSystem, "COLLECTION_WRITE_FAILED",
			"failed to replace collection file").WithContext("path", s.path)
	}

	// Track our own write so the watcher doesn't reload it
	if fileInfo, err := os.Stat(s.path); err == nil {
		s.fileModTime = fileInfo.ModTime()
	}
	return nil
}

// Add creates a new document with fresh ID and timestamps, appends it
// to the collection and persists immediately. An empty title defaults
// to "Untitled".
func (s *DocumentStore) Add(title, body string) (*models.Document, error) {
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := utils.GenerateShortUUID()
	for s.docs[id] != nil {
		id = utils.GenerateShortUUID()
	}

	now := time.Now()
	doc := &models.Document{
		ID:         id,
		Title:      title,
		PlainText:  body,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	s.docs[doc.ID] = doc
	s.order = append(s.order, doc.ID)

	if err := s.saveAllLocked(); err != nil {
		delete(s.docs, doc.ID)
		s.order = s.order[:len(s.order)-1]
		return nil, err
	}
	return doc.Clone(), nil
}

// Update replaces the stored record matching the document's ID and
// persists immediately. An unknown ID is a silent no-op; UI-driven
// races like delete-after-delete are expected. On a persistence
// failure the in-memory record keeps the update so the running
// session loses nothing.
func (s *DocumentStore) Update(doc *models.Document) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.docs[doc.ID]; !exists {
		log.Printf("Update for unknown document %s ignored", doc.ID)
		return nil
	}

	s.docs[doc.ID] = doc.Clone()
	return s.saveAllLocked()
}

// Delete removes the matching record, persists immediately and removes
// the document's rich cache file so no orphaned blob is left behind.
// An unknown ID is a silent no-op.
func (s *DocumentStore) Delete(id string) error {
	s.mutex.Lock()

	if _, exists := s.docs[id]; !exists {
		s.mutex.Unlock()
		return nil
	}

	delete(s.docs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	err := s.saveAllLocked()
	s.mutex.Unlock()

	if cacheErr := s.cache.Remove(id); cacheErr != nil {
		log.Printf("Error removing cache file for %s: %v", id, cacheErr)
	}
	return err
}

// Rename updates a document's title and modification time and persists
// immediately. An unknown ID is a silent no-op.
func (s *DocumentStore) Rename(id, newTitle string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc, exists := s.docs[id]
	if !exists {
		log.Printf("Rename for unknown document %s ignored", id)
		return nil
	}

	doc.Title = newTitle
	doc.ModifiedAt = time.Now()
	return s.saveAllLocked()
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(id string) (*models.Document, error) {
	s.mutex.RLock()
	doc, exists := s.docs[id]
	s.mutex.RUnlock()

	if !exists {
		return nil, errors.ErrDocumentNotFound.WithContext("docId", id)
	}
	return doc.Clone(), nil
}

// GetAll returns all documents sorted by modification time, newest first.
func (s *DocumentStore) GetAll() []*models.Document {
	s.mutex.RLock()
	docs := make([]*models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc.Clone())
	}
	s.mutex.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ModifiedAt.After(docs[j].ModifiedAt)
	})
	return docs
}

// Search returns documents whose title or body contains the query,
// case-insensitively, sorted by modification time, newest first.
func (s *DocumentStore) Search(query string) []*models.Document {
	query = strings.ToLower(query)

	s.mutex.RLock()
	var results []*models.Document
	for _, doc := range s.docs {
		if strings.Contains(strings.ToLower(doc.Title), query) ||
			strings.Contains(strings.ToLower(doc.PlainText), query) {
			results = append(results, doc.Clone())
		}
	}
	s.mutex.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].ModifiedAt.After(results[j].ModifiedAt)
	})
	return results
}

// Close cleans up the file watcher
func (s *DocumentStore) Close() error {
	s.debouncer.Clear()
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
