package triage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// supportedExtensions lists the image formats the pipeline can decode.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// LoadItems reads every supported image under dir, recursing into
// subdirectories. The image ID is the path relative to dir, so reports
// stay readable and IDs stay unique within a batch. Items are returned
// in sorted ID order for deterministic runs.
func LoadItems(dir string) ([]agent.Item, error) {
	var items []agent.Item

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		id, err := filepath.Rel(dir, path)
		if err != nil {
			id = filepath.Base(path)
		}

		items = append(items, agent.Item{
			Photo: domain.Photo{ID: id, Path: path},
			Raw:   raw,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Photo.ID < items[j].Photo.ID })
	return items, nil
}
