package categories

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleConfig is one category entry in the YAML rule file.
type ruleConfig struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Genre         string `yaml:"genre,omitempty"`
	Decade        int    `yaml:"decade,omitempty"`
	RequireWinner bool   `yaml:"require_winner,omitempty"`
	MinRevenue    int64  `yaml:"min_revenue,omitempty"`
}

type fileConfig struct {
	Categories []ruleConfig `yaml:"categories"`
}

// Load parses a YAML rule document into a Set.
func Load(data []byte) (*Set, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse category config: %w", err)
	}

	rules := make([]Rule, 0, len(cfg.Categories))
	for _, rc := range cfg.Categories {
		if rc.Name == "" {
			return nil, fmt.Errorf("category entry missing name")
		}
		switch rc.Type {
		case "genre":
			if rc.Genre == "" {
				return nil, fmt.Errorf("category %q: genre rule needs a genre", rc.Name)
			}
			rules = append(rules, GenreRule{Category: rc.Name, Genre: rc.Genre})
		case "decade":
			if rc.Decade == 0 {
				return nil, fmt.Errorf("category %q: decade rule needs a decade", rc.Name)
			}
			rules = append(rules, DecadeRule{Category: rc.Name, Decade: rc.Decade})
		case "awards":
			rules = append(rules, AwardsRule{Category: rc.Name, RequireWinner: rc.RequireWinner})
		case "revenue":
			rules = append(rules, RevenueRule{Category: rc.Name, MinRevenue: rc.MinRevenue})
		case "custom", "manual", "":
			rules = append(rules, ManualRule{Category: rc.Name})
		default:
			return nil, fmt.Errorf("category %q: unknown rule type %q", rc.Name, rc.Type)
		}
	}
	return NewSet(rules...), nil
}

// LoadFile reads and parses a YAML rule file. A missing path yields an empty
// permissive set rather than an error.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSet(), nil
		}
		return nil, fmt.Errorf("read category config: %w", err)
	}
	return Load(data)
}
