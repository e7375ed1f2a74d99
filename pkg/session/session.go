package session

import (
	"fmt"
	"log"
	"time"

	"inkwell/pkg/models"
	"inkwell/pkg/richtext"
	"inkwell/pkg/storage"
)

// State is the lifecycle state of an editing session.
type State int

const (
	// StateUnloaded means no document content is established yet.
	// Change-triggered persistence never happens in this state, so
	// the act of loading is never mistaken for an edit.
	StateUnloaded State = iota
	// StateLoaded means initial content is established and matches
	// what the repository holds.
	StateLoaded
	// StateDirty means in-memory edits have not been written back yet.
	StateDirty
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateDirty:
		return "dirty"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EditorSession governs one open document: how its styled content is
// reconstructed on open and how edits are reconciled back into the
// repository. The in-memory styled text is the single source of
// truth; the document's plain text, inline blob and cache path are
// projections recomputed on every reconciliation pass.
type EditorSession struct {
	store *storage.DocumentStore
	cache *storage.RichCacheStore

	state State
	doc   *models.Document
	text  *richtext.StyledText
}

// NewEditorSession creates a session over the given store and cache.
func NewEditorSession(store *storage.DocumentStore, cache *storage.RichCacheStore) *EditorSession {
	return &EditorSession{
		store: store,
		cache: cache,
		state: StateUnloaded,
	}
}

// State returns the current session state.
func (s *EditorSession) State() State {
	return s.state
}

// Document returns a copy of the reconciled document record, or nil
// when nothing is open.
func (s *EditorSession) Document() *models.Document {
	if s.doc == nil {
		return nil
	}
	return s.doc.Clone()
}

// Text returns the live styled text of the open document. Mutate it
// only through Apply so changes are observed and reconciled.
func (s *EditorSession) Text() *richtext.StyledText {
	return s.text
}

// Open establishes the session content for a document. Styled content
// is reconstructed with a fixed precedence: the cache file named by
// the record's cache path, then the inline rich blob, then plain text
// synthesized into unstyled content. Decode and read failures fall
// through to the next source; opening never persists the document
// being opened.
//
// Pending dirty edits on a previously open document are flushed
// first. A failed flush refuses the open and leaves the session on
// the dirty document, so last-second edits are never discarded.
func (s *EditorSession) Open(id string) error {
	if err := s.Flush(); err != nil {
		return err
	}

	doc, err := s.store.Get(id)
	if err != nil {
		return err
	}

	s.state = StateUnloaded
	s.doc = doc
	s.text = s.loadStyled(doc)
	s.state = StateLoaded

	return nil
}

// loadStyled resolves the document's styled content per the load
// precedence.
func (s *EditorSession) loadStyled(doc *models.Document) *richtext.StyledText {
	if doc.CachePath != "" {
		blob, err := s.cache.Load(doc.CachePath, doc.ID)
		if err != nil {
			log.Printf("Error reading cache file for %s: %v", doc.ID, err)
		} else if blob != nil {
			if text, err := richtext.Decode(blob); err == nil {
				return text
			} else {
				log.Printf("Error decoding cache file for %s, falling back: %v", doc.ID, err)
			}
		}
	}

	if len(doc.RichBlob) > 0 {
		if text, err := richtext.Decode(doc.RichBlob); err == nil {
			return text
		} else {
			log.Printf("Error decoding inline blob for %s, falling back to plain text: %v", doc.ID, err)
		}
	}

	return richtext.New(doc.PlainText)
}

// Apply runs a styled-text mutation, marks the session dirty and
// reconciles the result back into the repository. Format toggles,
// typing and image insertion from the presentation layer all come
// through here.
func (s *EditorSession) Apply(mutate func(*richtext.StyledText) error) error {
	if s.state == StateUnloaded {
		return fmt.Errorf("no document open")
	}

	if err := mutate(s.text); err != nil {
		return err
	}

	s.state = StateDirty
	return s.reconcile()
}

// SetPlainText replaces the document body with unstyled text. The
// change is only authoritative when the current styled content
// carries no formatting or attachments; otherwise it is refused so a
// stale plain-text shadow can never silently overwrite richer
// content.
func (s *EditorSession) SetPlainText(plain string) error {
	if s.state == StateUnloaded {
		return fmt.Errorf("no document open")
	}

	if s.text.HasRichContent() {
		log.Printf("Ignoring plain-text replacement for %s: styled content is newer", s.doc.ID)
		return nil
	}
	if plain == s.text.String() {
		return nil
	}

	s.text = richtext.New(plain)
	s.state = StateDirty
	return s.reconcile()
}

// Rename updates the open document's title through the repository.
func (s *EditorSession) Rename(newTitle string) error {
	if s.state == StateUnloaded {
		return fmt.Errorf("no document open")
	}
	s.doc.Title = newTitle
	return s.store.Rename(s.doc.ID, newTitle)
}

// Switch flushes any pending edits for the current document and opens
// another one. A failed flush aborts the switch: the session stays on
// the dirty document with its edits intact, and the caller can retry
// once the underlying write problem is resolved.
func (s *EditorSession) Switch(id string) error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.doc = nil
	s.text = nil
	s.state = StateUnloaded
	return s.Open(id)
}

// Flush writes pending dirty state back through the repository. A
// no-op when the session is clean.
func (s *EditorSession) Flush() error {
	if s.state != StateDirty {
		return nil
	}
	return s.reconcile()
}

// Close flushes pending state and detaches from the open document.
func (s *EditorSession) Close() error {
	err := s.Flush()
	s.doc = nil
	s.text = nil
	s.state = StateUnloaded
	return err
}

// reconcile recomputes the document's projections from the styled
// text and hands the record to the repository.
//
// Plain text always mirrors the visible characters. When the styled
// content materially differs from plain text it is encoded and
// written to the cache; the cache write completes before the record
// referencing the new path is persisted, so the collection never
// points at a missing cache file. When the content is plain, both
// rich projections are cleared and the stale cache file removed.
func (s *EditorSession) reconcile() error {
	s.doc.PlainText = s.text.String()

	if s.text.HasRichContent() {
		blob, err := richtext.Encode(s.text)
		if err != nil {
			// Unencodable styled text: degrade to plain-only rather
			// than keeping a stale blob around
			log.Printf("Error encoding styled text for %s: %v", s.doc.ID, err)
			s.clearRichProjections()
		} else if path, err := s.cache.Save(s.doc.ID, blob); err != nil {
			// Cache write failed: keep the blob inline so the rich
			// content survives in the collection file
			log.Printf("Error writing cache file for %s, keeping blob inline: %v", s.doc.ID, err)
			s.doc.RichBlob = blob
			s.doc.CachePath = ""
		} else {
			s.doc.RichBlob = nil
			s.doc.CachePath = path
		}
	} else {
		s.clearRichProjections()
	}

	s.doc.ModifiedAt = time.Now()

	if err := s.store.Update(s.doc); err != nil {
		// Stay dirty; in-memory edits are retained and the next flush
		// retries
		return err
	}

	s.state = StateLoaded
	return nil
}

// clearRichProjections drops the inline blob and cache path and
// removes the now redundant cache file.
func (s *EditorSession) clearRichProjections() {
	if s.doc.CachePath != "" || len(s.doc.RichBlob) > 0 {
		if err := s.cache.Remove(s.doc.ID); err != nil {
			log.Printf("Error removing stale cache file for %s: %v", s.doc.ID, err)
		}
	}
	s.doc.RichBlob = nil
	s.doc.CachePath = ""
}
