package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Facility is one bookable physical resource. Facilities are static
// configuration, never created or destroyed at runtime.
type Facility struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// HasEquipment marks facilities that carry an equipment checklist
	// (the studio). Bookings for other facilities never store equipment.
	HasEquipment bool     `yaml:"has_equipment,omitempty" json:"has_equipment,omitempty"`
	Equipment    []string `yaml:"equipment,omitempty" json:"equipment,omitempty"`
}

// Facilities is the root configuration for facilities.yaml.
type Facilities struct {
	Facilities []Facility `yaml:"facilities"`

	byID map[string]*Facility
}

// LoadFacilities loads and validates the facility catalog from YAML.
func LoadFacilities(path string) (*Facilities, error) {
	if path == "" {
		path = "configs/facilities.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facilities config: %w", err)
	}

	var cfg Facilities
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse facilities config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate facilities config: %w", err)
	}

	cfg.index()
	return &cfg, nil
}

// Validate checks the catalog for errors.
func (f *Facilities) Validate() error {
	if len(f.Facilities) == 0 {
		return fmt.Errorf("no facilities defined")
	}

	ids := make(map[string]bool)
	names := make(map[string]bool)

	for i, fac := range f.Facilities {
		if fac.ID == "" {
			return fmt.Errorf("facility[%d]: id is required", i)
		}
		if ids[fac.ID] {
			return fmt.Errorf("facility[%d]: duplicate id %q", i, fac.ID)
		}
		ids[fac.ID] = true

		if fac.Name == "" {
			return fmt.Errorf("facility[%d]: name is required", i)
		}
		if names[fac.Name] {
			return fmt.Errorf("facility[%d]: duplicate name %q", i, fac.Name)
		}
		names[fac.Name] = true

		if len(fac.Equipment) > 0 && !fac.HasEquipment {
			return fmt.Errorf("facility[%d]: equipment list requires has_equipment", i)
		}
	}
	return nil
}

func (f *Facilities) index() {
	f.byID = make(map[string]*Facility, len(f.Facilities))
	for i := range f.Facilities {
		f.byID[f.Facilities[i].ID] = &f.Facilities[i]
	}
}

// GetByID returns facility config by id, or nil when unknown.
func (f *Facilities) GetByID(id string) *Facility {
	if f.byID != nil {
		return f.byID[id]
	}
	for i := range f.Facilities {
		if f.Facilities[i].ID == id {
			return &f.Facilities[i]
		}
	}
	return nil
}

// Known reports whether id references a configured facility.
func (f *Facilities) Known(id string) bool {
	return f.GetByID(id) != nil
}

// IDs returns all facility ids in catalog order.
func (f *Facilities) IDs() []string {
	ids := make([]string, 0, len(f.Facilities))
	for _, fac := range f.Facilities {
		ids = append(ids, fac.ID)
	}
	return ids
}
