// Package config provides Viper-based configuration loading for the battle engine.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ai"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// DatabaseConfig holds PostgreSQL connection settings for the battle report archive.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// TuningConfig holds the balance constants an operator may override. Anything
// not listed keeps its combat.DefaultTuning value.
type TuningConfig struct {
	BaseHitChance     float64 `mapstructure:"base_hit_chance"`
	MinHitChance      float64 `mapstructure:"min_hit_chance"`
	DefenseFactor     float64 `mapstructure:"defense_factor"`
	VarianceFloor     float64 `mapstructure:"variance_floor"`
	DefendBonus       float64 `mapstructure:"defend_bonus"`
	CritBase          float64 `mapstructure:"crit_base"`
	CritMultiplier    float64 `mapstructure:"crit_multiplier"`
	CritMultiplierCap float64 `mapstructure:"crit_multiplier_cap"`
	FleeBase          float64 `mapstructure:"flee_base"`
	FleePerSpeed      float64 `mapstructure:"flee_per_speed"`
	FleeMin           float64 `mapstructure:"flee_min"`
	FleeMax           float64 `mapstructure:"flee_max"`
}

// ToTuning overlays t on combat.DefaultTuning.
func (t TuningConfig) ToTuning() combat.Tuning {
	out := combat.DefaultTuning()
	out.BaseHitChance = t.BaseHitChance
	out.MinHitChance = t.MinHitChance
	out.DefenseFactor = t.DefenseFactor
	out.VarianceFloor = t.VarianceFloor
	out.DefendBonus = t.DefendBonus
	out.CritBase = t.CritBase
	out.CritMultiplier = t.CritMultiplier
	out.CritMultiplierCap = t.CritMultiplierCap
	out.FleeBase = t.FleeBase
	out.FleePerSpeed = t.FleePerSpeed
	out.FleeMin = t.FleeMin
	out.FleeMax = t.FleeMax
	return out
}

// BattleConfig holds engine settings.
type BattleConfig struct {
	// Difficulty is the AI difficulty: "easy", "normal" or "hard".
	Difficulty string `mapstructure:"difficulty"`
	// Seed makes every roll reproducible. Zero selects crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// MaxTurns bounds simulator runs; zero means unbounded.
	MaxTurns int          `mapstructure:"max_turns"`
	Tuning   TuningConfig `mapstructure:"tuning"`
}

// ContentConfig names the YAML and Lua content directories.
type ContentConfig struct {
	Statuses   string `mapstructure:"statuses"`
	Abilities  string `mapstructure:"abilities"`
	Fruits     string `mapstructure:"fruits"`
	Items      string `mapstructure:"items"`
	Enemies    string `mapstructure:"enemies"`
	Encounters string `mapstructure:"encounters"`
	Scripts    string `mapstructure:"scripts"`
	// Party is the player party file.
	Party string `mapstructure:"party"`
	// ScriptInstructionLimit caps the Lua instructions of one hook call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// ArchiveConfig controls storing finished battles in PostgreSQL.
type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TracingConfig controls the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP/HTTP collector "host:port".
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Content  ContentConfig  `mapstructure:"content"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// Validate checks all configuration invariants. The database section is only
// checked when the archive is enabled.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Archive.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTracing(c.Tracing); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if _, err := ai.ParseDifficulty(b.Difficulty); err != nil {
		errs = append(errs, fmt.Sprintf("battle.difficulty: %v", err))
	}
	if b.MaxTurns < 0 {
		errs = append(errs, fmt.Sprintf("battle.max_turns must be >= 0, got %d", b.MaxTurns))
	}
	t := b.Tuning
	for name, pct := range map[string]float64{
		"base_hit_chance": t.BaseHitChance,
		"min_hit_chance":  t.MinHitChance,
		"crit_base":       t.CritBase,
		"flee_base":       t.FleeBase,
		"flee_min":        t.FleeMin,
		"flee_max":        t.FleeMax,
	} {
		if pct < 0 || pct > 100 {
			errs = append(errs, fmt.Sprintf("battle.tuning.%s must be within [0, 100], got %g", name, pct))
		}
	}
	sort.Strings(errs)
	if t.FleeMin > t.FleeMax {
		errs = append(errs, "battle.tuning.flee_min must not exceed battle.tuning.flee_max")
	}
	if t.VarianceFloor <= 0 || t.VarianceFloor > 1 {
		errs = append(errs, fmt.Sprintf("battle.tuning.variance_floor must be within (0, 1], got %g", t.VarianceFloor))
	}
	if t.DefenseFactor < 0 {
		errs = append(errs, "battle.tuning.defense_factor must not be negative")
	}
	if t.DefendBonus < 0 {
		errs = append(errs, "battle.tuning.defend_bonus must not be negative")
	}
	if t.CritMultiplier < 1 || t.CritMultiplierCap < t.CritMultiplier {
		errs = append(errs, "battle.tuning requires 1 <= crit_multiplier <= crit_multiplier_cap")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	for name, dir := range map[string]string{
		"statuses":   c.Statuses,
		"abilities":  c.Abilities,
		"fruits":     c.Fruits,
		"items":      c.Items,
		"enemies":    c.Enemies,
		"encounters": c.Encounters,
	} {
		if dir == "" {
			errs = append(errs, fmt.Sprintf("content.%s must not be empty", name))
		}
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, "content.script_instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTracing(t TracingConfig) error {
	if !t.Enabled {
		return nil
	}
	var errs []string
	if t.Endpoint == "" {
		errs = append(errs, "tracing.endpoint must not be empty when tracing is enabled")
	}
	if t.ServiceName == "" {
		errs = append(errs, "tracing.service_name must not be empty when tracing is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with BATTLE_ prefix
	v.SetEnvPrefix("BATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the built-in defaults.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "battle")
	v.SetDefault("database.password", "battle")
	v.SetDefault("database.name", "battle")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	def := combat.DefaultTuning()
	v.SetDefault("battle.difficulty", "normal")
	v.SetDefault("battle.seed", 0)
	v.SetDefault("battle.max_turns", 500)
	v.SetDefault("battle.tuning.base_hit_chance", def.BaseHitChance)
	v.SetDefault("battle.tuning.min_hit_chance", def.MinHitChance)
	v.SetDefault("battle.tuning.defense_factor", def.DefenseFactor)
	v.SetDefault("battle.tuning.variance_floor", def.VarianceFloor)
	v.SetDefault("battle.tuning.defend_bonus", def.DefendBonus)
	v.SetDefault("battle.tuning.crit_base", def.CritBase)
	v.SetDefault("battle.tuning.crit_multiplier", def.CritMultiplier)
	v.SetDefault("battle.tuning.crit_multiplier_cap", def.CritMultiplierCap)
	v.SetDefault("battle.tuning.flee_base", def.FleeBase)
	v.SetDefault("battle.tuning.flee_per_speed", def.FleePerSpeed)
	v.SetDefault("battle.tuning.flee_min", def.FleeMin)
	v.SetDefault("battle.tuning.flee_max", def.FleeMax)

	v.SetDefault("content.statuses", "content/statuses")
	v.SetDefault("content.abilities", "content/abilities")
	v.SetDefault("content.fruits", "content/fruits")
	v.SetDefault("content.items", "content/items")
	v.SetDefault("content.enemies", "content/enemies")
	v.SetDefault("content.encounters", "content/encounters")
	v.SetDefault("content.scripts", "content/scripts")
	v.SetDefault("content.party", "content/party.yaml")
	v.SetDefault("content.script_instruction_limit", 100000)

	v.SetDefault("archive.enabled", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "battle-engine")
}
