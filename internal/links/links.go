package links

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tanicerdas/weather-pipeline/internal/weather"
)

var validate = validator.New()

// Loader reads LocationLink entries from a directory of JSON array files.
// All files are merged; non-conforming files and entries are skipped with a
// warning rather than failing the load.
type Loader struct {
	dir    string
	logger *slog.Logger
}

func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load merges every *.json file in the directory into one link list.
// It fails only if the directory itself cannot be read.
func (l *Loader) Load() ([]weather.LocationLink, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read links directory %s: %w", l.dir, err)
	}

	var all []weather.LocationLink
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("links: unreadable file, skipping", "file", entry.Name(), "err", err)
			continue
		}

		var fileLinks []weather.LocationLink
		if err := json.Unmarshal(data, &fileLinks); err != nil {
			l.logger.Warn("links: file is not a JSON array of links, skipping", "file", entry.Name(), "err", err)
			continue
		}

		for _, link := range fileLinks {
			if err := validate.Struct(link); err != nil {
				l.logger.Warn("links: invalid entry, skipping", "file", entry.Name(), "adm4", link.AdmCode, "err", err)
				continue
			}
			all = append(all, link)
		}
	}

	l.logger.Info("links: loaded", "count", len(all), "dir", l.dir)
	return all, nil
}
