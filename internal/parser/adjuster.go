package parser

import (
	"fmt"
	"os"
	"slices"

	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Adjuster provides operation filtering and description overrides based on YAML configuration
type Adjuster struct {
	adjustments *models.MCPAdjustments
}

// NewAdjuster creates a new Adjuster instance
func NewAdjuster() *Adjuster {
	return &Adjuster{
		adjustments: &models.MCPAdjustments{
			Descriptions: []models.DescriptionUpdate{},
			Operations:   []string{},
		},
	}
}

// LoadAdjuster creates an Adjuster from a YAML file, an empty path yields a pass-through Adjuster
func LoadAdjuster(filePath string) (*Adjuster, error) {
	a := NewAdjuster()
	if err := a.Load(filePath); err != nil {
		return nil, err
	}
	return a, nil
}

// Load loads adjustments from a YAML file
func (a *Adjuster) Load(filePath string) error {
	if filePath == "" {
		return nil
	}

	logger.Info("Loading adjustments from file", zap.String("file", filePath))
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		logger.Warn("Adjustments file not found", zap.String("file", filePath))
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read adjustments file: %w", err)
	}
	return a.LoadData(data)
}

// LoadData loads adjustments from YAML bytes
func (a *Adjuster) LoadData(data []byte) error {
	var adjustments models.MCPAdjustments
	if err := yaml.Unmarshal(data, &adjustments); err != nil {
		return fmt.Errorf("failed to parse adjustments: %w", err)
	}
	a.adjustments = &adjustments
	return nil
}

// Adjustments returns the loaded adjustments
func (a *Adjuster) Adjustments() *models.MCPAdjustments {
	return a.adjustments
}

// Selected reports whether the operation should be exposed as a tool
func (a *Adjuster) Selected(operationID string) bool {
	if a == nil || a.adjustments == nil || len(a.adjustments.Operations) == 0 {
		return true
	}
	return slices.Contains(a.adjustments.Operations, operationID)
}

// Description returns the overridden description for an operation, or original when none is set
func (a *Adjuster) Description(operationID, original string) string {
	if a == nil || a.adjustments == nil {
		return original
	}
	for _, update := range a.adjustments.Descriptions {
		if update.OperationID == operationID && update.NewDescription != "" {
			return update.NewDescription
		}
	}
	return original
}
