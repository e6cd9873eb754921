// Package models defines the domain types shared by the index, the service
// and the transports.
package models

import "time"

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reference is one definition emitted for a source note: a directed edge from
// the note to a corpus document, a tag page, a mention page or an unresolved
// placeholder.
type Reference struct {
	Source      string `json:"source"`
	Label       string `json:"label"`
	Kind        string `json:"kind"` // "wikilink", "embed", "tag" or "mention"
	Destination string `json:"destination"`
	Title       string `json:"title"`
	// Document is the corpus path a wikilink or embed resolved to.
	Document string `json:"document,omitempty"`
	Resolved bool   `json:"resolved"`
}
