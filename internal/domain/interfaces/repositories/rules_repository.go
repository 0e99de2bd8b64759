// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/fetchrun/internal/domain/entities"
)

// RulesRepository gives access to alert rule files
type RulesRepository interface {
	// LoadAll parses every rule file in the repository
	LoadAll(ctx context.Context) ([]*entities.AlertFile, error)
}
