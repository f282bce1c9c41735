package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/SaicoBys/airbnb-manager/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
	Rooms      []models.Room    `yaml:"rooms"`
	Supplies   []models.Supply  `yaml:"supplies"`
	Packages   []RoomPackage    `yaml:"packages"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// RoomPackage binds a room to its configured consumable package lines.
type RoomPackage struct {
	RoomID int64                `yaml:"room_id"`
	Items  []models.PackageItem `yaml:"items"`
}

func Load(configPath string) (*Config, error) {
	// .env overlay is optional; config values may reference env vars.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expanded, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if err := ValidateRooms(c.Rooms); err != nil {
		return err
	}
	if err := ValidateSupplies(c.Supplies); err != nil {
		return err
	}
	return c.validatePackages()
}

func ValidateRooms(rooms []models.Room) error {
	seen := make(map[int64]bool)
	for _, room := range rooms {
		if room.ID == 0 {
			return fmt.Errorf("room '%s' has invalid ID 0", room.Name)
		}
		if seen[room.ID] {
			return fmt.Errorf("duplicate room ID found: %d", room.ID)
		}
		if !room.Tier.IsValid() {
			return fmt.Errorf("room '%s' has unknown tier '%s'", room.Name, room.Tier)
		}
		seen[room.ID] = true
	}
	return nil
}

func ValidateSupplies(supplies []models.Supply) error {
	seen := make(map[int64]bool)
	for _, supply := range supplies {
		if supply.ID == 0 {
			return fmt.Errorf("supply '%s' has invalid ID 0", supply.Name)
		}
		if seen[supply.ID] {
			return fmt.Errorf("duplicate supply ID found: %d", supply.ID)
		}
		if supply.CurrentStock < 0 {
			return fmt.Errorf("supply '%s' has negative stock", supply.Name)
		}
		seen[supply.ID] = true
	}
	return nil
}

// validatePackages enforces the (room, supply) uniqueness invariant and
// checks referential integrity against the catalogue.
func (c *Config) validatePackages() error {
	rooms := make(map[int64]bool, len(c.Rooms))
	for _, r := range c.Rooms {
		rooms[r.ID] = true
	}
	supplies := make(map[int64]bool, len(c.Supplies))
	for _, s := range c.Supplies {
		supplies[s.ID] = true
	}

	for _, pkg := range c.Packages {
		if !rooms[pkg.RoomID] {
			return fmt.Errorf("package references unknown room %d", pkg.RoomID)
		}
		seen := make(map[int64]bool)
		for _, item := range pkg.Items {
			if !supplies[item.SupplyID] {
				return fmt.Errorf("package for room %d references unknown supply %d", pkg.RoomID, item.SupplyID)
			}
			if seen[item.SupplyID] {
				return fmt.Errorf("package for room %d lists supply %d twice", pkg.RoomID, item.SupplyID)
			}
			if item.Quantity <= 0 {
				return fmt.Errorf("package for room %d has non-positive quantity for supply %d", pkg.RoomID, item.SupplyID)
			}
			seen[item.SupplyID] = true
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "airbnb-manager"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}

	for i := range c.Rooms {
		if c.Rooms[i].Status == "" {
			c.Rooms[i].Status = models.RoomClean
		}
	}
	for _, pkg := range c.Packages {
		for i := range pkg.Items {
			if pkg.Items[i].UsageType == "" {
				pkg.Items[i].UsageType = models.UsageAutomatic
			}
		}
	}
}
