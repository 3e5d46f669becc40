package sync

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// Snapshot returns the names of the regular files directly inside dir.
// Subdirectories, symlinks and other special entries are skipped; nothing is
// read recursively.
func Snapshot(fs afero.Fs, dir string) ([]string, error) {
	info, err := fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir)
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}
