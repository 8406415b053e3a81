package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/amolyst/amolyst/internal/state"
)

// JSONSource walks a directory tree and feeds every *.json file, decoded
// into an Entry, to a callback. Subdirectories are included.
type JSONSource struct {
	BaseDir string
}

// Each walks the tree. Unreadable files and malformed JSON abort the walk;
// a missing or unreadable base directory is a source access failure.
func (s JSONSource) Each(ctx context.Context, fn func(state.Entry) error) error {
	return filepath.WalkDir(s.BaseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".json" {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var entry state.Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return fn(entry)
	})
}
