package index

import "github.com/starford/foamlinks/internal/models"

// NoteIndex defines the interface for reference index operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow, refs []models.Reference) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	GetNote(path string) (*NoteRow, error)
	ListNotes(limit, offset int, sort string) ([]NoteRow, int, error)
	References(source string) ([]models.Reference, error)
	Backlinks(path string) ([]string, error)
	Unresolved() ([]models.Reference, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
