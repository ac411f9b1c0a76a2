// Package sim runs battles end to end from loaded content: it builds the
// party and the enemy group, wires the AI, Lua hooks and tracing into a
// battle.Manager, steps it to the end and archives the result.
package sim

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/config"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/inventory"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/npc"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/status"
)

// Content is the read-only game data shared by every battle in a process.
type Content struct {
	Statuses  *status.Registry
	Abilities *ability.Registry
	Items     *inventory.Registry
	Catalog   *npc.Catalog
	// ScriptsDir is empty when no Lua scripts are configured.
	ScriptsDir  string
	ScriptLimit int
}

// LoadContent loads every content directory named by cfg.
//
// Precondition: cfg must have passed config.Validate.
// Postcondition: Returns fully cross-checked Content, or the first load error.
func LoadContent(cfg config.ContentConfig, logger *zap.Logger) (*Content, error) {
	statuses, err := status.LoadDirectory(cfg.Statuses)
	if err != nil {
		return nil, fmt.Errorf("loading statuses: %w", err)
	}
	abilities, err := ability.LoadDirectories(cfg.Abilities, cfg.Fruits)
	if err != nil {
		return nil, fmt.Errorf("loading abilities: %w", err)
	}
	defs, err := inventory.LoadItems(cfg.Items)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	items, err := inventory.NewRegistryFromItems(defs)
	if err != nil {
		return nil, fmt.Errorf("indexing items: %w", err)
	}
	catalog, err := npc.LoadCatalog(abilities, cfg.Enemies, cfg.Encounters)
	if err != nil {
		return nil, fmt.Errorf("loading enemies: %w", err)
	}

	c := &Content{
		Statuses:    statuses,
		Abilities:   abilities,
		Items:       items,
		Catalog:     catalog,
		ScriptLimit: cfg.ScriptInstructionLimit,
	}
	if cfg.Scripts != "" {
		if _, err := os.Stat(cfg.Scripts); err == nil {
			c.ScriptsDir = cfg.Scripts
		} else {
			logger.Warn("scripts directory unavailable; bosses use built-in phases", zap.String("dir", cfg.Scripts), zap.Error(err))
		}
	}
	logger.Info("content loaded",
		zap.Int("statuses", len(statuses.All())),
		zap.Int("abilities", len(abilities.AllAbilities())),
		zap.Int("fruits", len(abilities.AllFruits())),
		zap.Int("items", len(items.All())),
		zap.Int("encounters", len(catalog.Encounters())),
	)
	return c, nil
}
