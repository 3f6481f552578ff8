// Package catalog enumerates candidate source videos for the montage.
package catalog

import (
	"fmt"
	"io/fs"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Catalog is an immutable list of candidate source video paths.
type Catalog struct {
	files []string
}

// Find walks the given roots recursively and collects files whose extension
// matches the given set, case-insensitively. Roots that do not exist are
// logged and skipped; an empty result is an error because nothing could
// ever be assembled from it.
func Find(logger zerolog.Logger, roots []string, extensions []string) (*Catalog, error) {
	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			wanted["."+ext] = true
		}
	}

	var files []string
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if wanted[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			logger.Warn().Err(err).Str("folder", root).Msg("skipping source folder")
		}
	}

	logger.Info().Int("files", len(files)).Msg("source catalog built")

	if len(files) == 0 {
		return nil, fmt.Errorf("no videos with extensions %s found in %s",
			strings.Join(extensions, ","), strings.Join(roots, ","))
	}

	return &Catalog{files: files}, nil
}

// FromPaths builds a catalog from an explicit file list.
func FromPaths(paths []string) *Catalog {
	return &Catalog{files: paths}
}

// Pick returns a uniformly random source path.
func (c *Catalog) Pick(rng *rand.Rand) string {
	return c.files[rng.Intn(len(c.files))]
}

// Len returns the number of candidate sources.
func (c *Catalog) Len() int {
	return len(c.files)
}
