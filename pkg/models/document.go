package models

import "time"

// Document represents a single note in the collection.
//
// PlainText always holds the visible characters of the document body.
// RichBlob and CachePath are optional projections of the styled
// representation: RichBlob carries the serialized styled text inline
// (base64 in the collection JSON), CachePath points at a cache file
// holding the same kind of blob. At most one of them is authoritative
// at load time; CachePath wins when it is set and readable.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	PlainText  string    `json:"content"`
	RichBlob   []byte    `json:"richContent,omitempty"`
	CachePath  string    `json:"cachePath,omitempty"`
	CreatedAt  time.Time `json:"creationDate"`
	ModifiedAt time.Time `json:"lastEdited"`
}

// HasRichContent reports whether the document carries a styled
// representation, inline or via a cache file.
func (d *Document) HasRichContent() bool {
	return len(d.RichBlob) > 0 || d.CachePath != ""
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	if d.RichBlob != nil {
		c.RichBlob = make([]byte, len(d.RichBlob))
		copy(c.RichBlob, d.RichBlob)
	}
	return &c
}
