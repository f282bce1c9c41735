package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
app:
  name: test-manager
  environment: test

database:
  path: data/test.db

api:
  port: 9000

rooms:
  - id: 1
    name: Room 1
    tier: economy
  - id: 2
    name: Room 2
    tier: suite

supplies:
  - id: 1
    name: Towels
    current_stock: 10
    minimum_stock: 2
    unit_price: 250

packages:
  - room_id: 2
    items:
      - supply_id: 1
        quantity: 2
        is_mandatory: true
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-manager", cfg.App.Name)
	assert.Equal(t, "data/test.db", cfg.Database.Path)
	assert.Equal(t, 9000, cfg.API.Port)
	require.Len(t, cfg.Rooms, 2)
	assert.Equal(t, models.TierEconomy, cfg.Rooms[0].Tier)
	require.Len(t, cfg.Packages, 1)
	assert.Equal(t, int64(2), cfg.Packages[0].RoomID)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: data/test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "airbnb-manager", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "data/expanded.db")
	path := writeConfig(t, `
database:
  path: ${TEST_DB_PATH}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/expanded.db", cfg.Database.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsMissingDatabasePath(t *testing.T) {
	path := writeConfig(t, `
app:
  name: broken
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "database path")
}

func TestValidateRooms(t *testing.T) {
	assert.NoError(t, ValidateRooms([]models.Room{
		{ID: 1, Name: "A", Tier: models.TierEconomy},
	}))

	err := ValidateRooms([]models.Room{{ID: 0, Name: "A", Tier: models.TierEconomy}})
	assert.ErrorContains(t, err, "invalid ID")

	err = ValidateRooms([]models.Room{
		{ID: 1, Name: "A", Tier: models.TierEconomy},
		{ID: 1, Name: "B", Tier: models.TierSuite},
	})
	assert.ErrorContains(t, err, "duplicate room ID")

	err = ValidateRooms([]models.Room{{ID: 1, Name: "A", Tier: "penthouse"}})
	assert.ErrorContains(t, err, "unknown tier")
}

func TestValidateSupplies(t *testing.T) {
	err := ValidateSupplies([]models.Supply{
		{ID: 1, Name: "A"},
		{ID: 1, Name: "B"},
	})
	assert.ErrorContains(t, err, "duplicate supply ID")

	err = ValidateSupplies([]models.Supply{{ID: 1, Name: "A", CurrentStock: -1}})
	assert.ErrorContains(t, err, "negative stock")
}

func TestValidatePackages(t *testing.T) {
	path := writeConfig(t, `
database:
  path: data/test.db

rooms:
  - id: 1
    name: Room 1
    tier: economy

supplies:
  - id: 1
    name: Towels

packages:
  - room_id: 1
    items:
      - supply_id: 1
        quantity: 2
      - supply_id: 1
        quantity: 3
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "twice")

	path = writeConfig(t, `
database:
  path: data/test.db

rooms:
  - id: 1
    name: Room 1
    tier: economy

supplies:
  - id: 1
    name: Towels

packages:
  - room_id: 9
    items:
      - supply_id: 1
        quantity: 2
`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "unknown room")
}
