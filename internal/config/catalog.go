// internal/config/catalog.go

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kosbaliku/internal/domain/listing"
)

// facilitiesFile is the layout of the facility catalog YAML file
type facilitiesFile struct {
	Facilities []listing.Facility `yaml:"facilities"`
}

// LoadCatalog returns the facility catalog from the configured file, or the default catalog
func LoadCatalog(cfg CatalogConfig) (*listing.FacilityCatalog, error) {
	if cfg.FacilitiesFile == "" {
		return listing.DefaultFacilityCatalog(), nil
	}

	data, err := os.ReadFile(cfg.FacilitiesFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read facilities file: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes a facility catalog from YAML
func ParseCatalog(data []byte) (*listing.FacilityCatalog, error) {
	var file facilitiesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse facilities file: %w", err)
	}

	if len(file.Facilities) == 0 {
		return nil, fmt.Errorf("facilities file lists no facilities")
	}

	for i, f := range file.Facilities {
		if f.Name == "" {
			return nil, fmt.Errorf("facility %d has no name", i)
		}
		switch f.Category {
		case listing.CategoryRoom, listing.CategoryEnvironment:
		default:
			return nil, fmt.Errorf("facility %q has unknown category %q", f.Name, f.Category)
		}
	}

	return listing.NewFacilityCatalog(file.Facilities), nil
}
