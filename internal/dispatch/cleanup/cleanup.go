package cleanup

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
)

// Cleaner removes ephemeral upload artifacts. Each path is attempted
// independently; failures are logged, never returned.
type Cleaner struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Cleaner {
	return &Cleaner{log: log}
}

func (c *Cleaner) Remove(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := os.Remove(p)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		c.log.Warn().Err(err).Str("path", p).Msg("failed to remove artifact")
	}
}
