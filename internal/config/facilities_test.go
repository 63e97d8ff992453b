package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFacilities(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "facilities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFacilities(t *testing.T) {
	path := writeFacilities(t, `
facilities:
  - id: studio
    name: Studio Room
    has_equipment: true
    equipment: ["Mic - Condenser", "Green Screen"]
  - id: robotics
    name: Robotics & Coding Lab
`)

	cfg, err := LoadFacilities(path)
	require.NoError(t, err)

	assert.True(t, cfg.Known("studio"))
	assert.True(t, cfg.Known("robotics"))
	assert.False(t, cfg.Known("pool"))

	studio := cfg.GetByID("studio")
	require.NotNil(t, studio)
	assert.True(t, studio.HasEquipment)
	assert.Len(t, studio.Equipment, 2)

	robotics := cfg.GetByID("robotics")
	require.NotNil(t, robotics)
	assert.False(t, robotics.HasEquipment)

	assert.Equal(t, []string{"studio", "robotics"}, cfg.IDs())
}

func TestLoadFacilitiesValidation(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		path := writeFacilities(t, "facilities: []\n")
		_, err := LoadFacilities(path)
		assert.Error(t, err)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		path := writeFacilities(t, `
facilities:
  - id: studio
    name: Studio A
  - id: studio
    name: Studio B
`)
		_, err := LoadFacilities(path)
		assert.Error(t, err)
	})

	t.Run("EquipmentWithoutFlag", func(t *testing.T) {
		path := writeFacilities(t, `
facilities:
  - id: robotics
    name: Robotics Lab
    equipment: ["Soldering Iron"]
`)
		_, err := LoadFacilities(path)
		assert.Error(t, err)
	})
}
