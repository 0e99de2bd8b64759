package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/fetchrun/internal/domain/entities"
	"github.com/ochairo/fetchrun/internal/domain/interfaces"
)

// RulesRepository loads rule files from a directory
type RulesRepository struct {
	rulesDir string
	parser   *RulesParser
	logger   interfaces.Logger
}

// NewRulesRepository creates a new YAML-based rules repository
func NewRulesRepository(rulesDir string, logger interfaces.Logger) *RulesRepository {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &RulesRepository{
		rulesDir: rulesDir,
		parser:   NewRulesParser(),
		logger:   logger,
	}
}

// LoadAll parses every file directly under the rules directory, in name
// order, following symlinks. Files that do not parse as rule files are
// skipped; a file that cannot be read fails the whole load.
func (r *RulesRepository) LoadAll(ctx context.Context) ([]*entities.AlertFile, error) {
	entries, err := os.ReadDir(r.rulesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules directory: %w", err)
	}

	files := make([]*entities.AlertFile, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		filePath := filepath.Join(r.rulesDir, entry.Name())
		info, err := os.Stat(filePath)
		if os.IsNotExist(err) {
			// dangling symlink
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", entry.Name(), err)
		}
		if info.IsDir() {
			continue
		}

		//nolint:gosec // G304: filePath is a rule file from the configured rules directory
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", entry.Name(), err)
		}

		file, err := r.parser.Parse(data)
		if err != nil {
			r.logger.Warn("skipping rule file", interfaces.F("file", entry.Name()), interfaces.F("error", err))
			continue
		}

		files = append(files, file)
	}

	return files, nil
}
