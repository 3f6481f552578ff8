package montage

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"beatcannon/pkg/util"
)

// Workdir is the scoped working directory holding intermediate clips for one
// pipeline run. A caller-supplied directory is created if missing and kept
// after the run; an engine-created one is deleted on release, success or
// failure alike.
type Workdir struct {
	logger     zerolog.Logger
	path       string
	persistent bool
}

// NewWorkdir acquires the working directory. Pass an empty custom path to
// get a fresh temporary directory.
func NewWorkdir(logger zerolog.Logger, custom string) (*Workdir, error) {
	if custom != "" {
		if err := util.EnsureDir(custom); err != nil {
			return nil, err
		}
		logger.Info().Str("dir", custom).Msg("using custom working directory")
		return &Workdir{logger: logger, path: custom, persistent: true}, nil
	}

	path, err := os.MkdirTemp("", "beatcannon-")
	if err != nil {
		return nil, err
	}
	logger.Info().Str("dir", path).Msg("created working directory")
	return &Workdir{logger: logger, path: path}, nil
}

// Path returns the directory path.
func (w *Workdir) Path() string {
	return w.path
}

// File returns the path of a file inside the working directory.
func (w *Workdir) File(name string) string {
	return filepath.Join(w.path, name)
}

// Release deletes the directory unless it was caller-supplied. Deletion
// failures are logged, never escalated.
func (w *Workdir) Release() {
	if w.persistent {
		return
	}
	if err := os.RemoveAll(w.path); err != nil {
		w.logger.Warn().Err(err).Str("dir", w.path).Msg("failed to clean working directory")
		return
	}
	w.logger.Debug().Str("dir", w.path).Msg("cleaned working directory")
}
