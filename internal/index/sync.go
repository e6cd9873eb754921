package index

import (
	"log/slog"
	"sort"
)

// Prune removes every indexed note whose path is not in keep and returns the
// removed paths in sorted order. Individual delete failures are logged and
// skipped.
func Prune(db NoteIndex, keep map[string]struct{}, logger *slog.Logger) ([]string, error) {
	checksums, err := db.AllChecksums()
	if err != nil {
		return nil, err
	}

	var removed []string
	for p := range checksums {
		if _, ok := keep[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("prune: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("prune: removed stale", slog.String("path", p))
		removed = append(removed, p)
	}
	sort.Strings(removed)
	return removed, nil
}
