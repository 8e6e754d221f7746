package store

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// SeedFile is the on-disk format for bootstrapping a graph: pillar levels,
// an agent roster, and an optional set of starting nodes.
type SeedFile struct {
	PillarLevels []SeedPillarLevel `yaml:"pillar_levels"`
	Agents       []SeedAgent       `yaml:"agents"`
	Nodes        []SeedNode        `yaml:"nodes"`
}

// SeedPillarLevel describes one domain classification entry.
type SeedPillarLevel struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	DomainType  string `yaml:"domain_type"`
}

// SeedAgent describes one agent profile.
type SeedAgent struct {
	ID                   string             `yaml:"id"`
	Name                 string             `yaml:"name"`
	DomainCoverage       []string           `yaml:"domain_coverage"`
	Algorithms           []string           `yaml:"algorithms"`
	ConfidenceThresholds map[string]float64 `yaml:"confidence_thresholds"`
	Capabilities         []string           `yaml:"capabilities"`
}

// SeedNode describes one starting node.
type SeedNode struct {
	ID            string                  `yaml:"id"`
	Label         string                  `yaml:"label"`
	Description   string                  `yaml:"description"`
	PillarLevelID string                  `yaml:"pillar_level_id"`
	AxisValues    map[string]SeedAxisData `yaml:"axis_values"`
}

// SeedAxisData mirrors models.AxisData for YAML decoding.
type SeedAxisData struct {
	Values  []float64 `yaml:"values"`
	Weights []float64 `yaml:"weights"`
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Seed loads the seed file contents into the store. Missing IDs are
// generated; existing records with matching IDs are replaced.
func (s *SQLiteStore) Seed(ctx context.Context, seed *SeedFile) error {
	for _, p := range seed.PillarLevels {
		pillar := models.PillarLevel{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			DomainType:  p.DomainType,
		}
		if err := s.SavePillarLevel(ctx, &pillar); err != nil {
			return err
		}
	}

	for _, sa := range seed.Agents {
		agent := models.Agent{
			ID:                   sa.ID,
			Name:                 sa.Name,
			DomainCoverage:       sa.DomainCoverage,
			AlgorithmsAvailable:  sa.Algorithms,
			ConfidenceThresholds: sa.ConfidenceThresholds,
			Capabilities:         sa.Capabilities,
			State:                models.AgentStateIdle,
		}
		if agent.ID == "" {
			agent.ID = uuid.New().String()
		}
		if err := s.SaveAgent(ctx, &agent); err != nil {
			return err
		}
	}

	for _, sn := range seed.Nodes {
		node := models.Node{
			ID:            sn.ID,
			Label:         sn.Label,
			Description:   sn.Description,
			PillarLevelID: sn.PillarLevelID,
			AxisValues:    make(map[string]models.AxisData, len(sn.AxisValues)),
		}
		if node.ID == "" {
			node.ID = uuid.New().String()
		}
		for name, data := range sn.AxisValues {
			node.AxisValues[name] = models.AxisData{Values: data.Values, Weights: data.Weights}
		}
		if err := s.SaveNode(ctx, &node); err != nil {
			return err
		}
	}

	return nil
}
