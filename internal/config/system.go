package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"boat-safety-go/pkg/models"
)

// LoadSystemConfig reads detection parameters from a JSON or YAML file.
// Missing keys keep their defaults and every key can be overridden from the
// environment (boat.length -> BOAT_LENGTH). An empty path skips the file.
func LoadSystemConfig(path string) (models.SystemConfig, error) {
	v := viper.New()
	def := models.DefaultSystemConfig()
	v.SetDefault("boat.length", def.Boat.Length)
	v.SetDefault("boat.width", def.Boat.Width)
	v.SetDefault("emergency_threshold_s", def.EmergencyThresholdS)
	v.SetDefault("warning_threshold_s", def.WarningThresholdS)
	v.SetDefault("max_boats", def.MaxBoats)
	v.SetDefault("min_route_gap_m", def.MinRouteGapM)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return models.SystemConfig{}, fmt.Errorf("failed to read system config %s: %w", path, err)
		}
	}

	var cfg models.SystemConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return models.SystemConfig{}, fmt.Errorf("failed to decode system config: %w", err)
	}
	if err := ValidateSystemConfig(cfg); err != nil {
		return models.SystemConfig{}, err
	}
	return cfg, nil
}

// ValidateSystemConfig rejects physically meaningless values. Thresholds are
// not checked: non-positive thresholds are a legal, if aggressive, setting.
func ValidateSystemConfig(cfg models.SystemConfig) error {
	if cfg.Boat.Length <= 0 {
		return fmt.Errorf("boat.length must be positive, got %v", cfg.Boat.Length)
	}
	if cfg.Boat.Width <= 0 {
		return fmt.Errorf("boat.width must be positive, got %v", cfg.Boat.Width)
	}
	if cfg.MaxBoats < 0 {
		return fmt.Errorf("max_boats must be non-negative, got %d", cfg.MaxBoats)
	}
	if cfg.MinRouteGapM < 0 {
		return fmt.Errorf("min_route_gap_m must be non-negative, got %v", cfg.MinRouteGapM)
	}
	return nil
}
