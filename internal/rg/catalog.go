package rg

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// BadgeInfo é a configuração de exibição de uma conquista.
// Computed=false significa que o avaliador nunca concede a conquista.
type BadgeInfo struct {
	ID          BadgeID `yaml:"id" json:"id"`
	Label       string  `yaml:"label" json:"label"`
	Description string  `yaml:"description" json:"description"`
	Icon        string  `yaml:"icon" json:"icon"`
	Color       string  `yaml:"color" json:"color"`
	Computed    bool    `yaml:"computed" json:"computed"`
}

type catalogFile struct {
	Badges []BadgeInfo `yaml:"badges"`
}

var badgeCatalog = mustParseCatalog(catalogYAML)

// ParseCatalog lê um catálogo em YAML. Ids duplicados ou vazios são erro.
func ParseCatalog(raw []byte) ([]BadgeInfo, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse badge catalog: %w", err)
	}
	seen := make(map[BadgeID]bool, len(f.Badges))
	for _, b := range f.Badges {
		if b.ID == "" {
			return nil, fmt.Errorf("parse badge catalog: entry without id")
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("parse badge catalog: duplicate id %q", b.ID)
		}
		seen[b.ID] = true
	}
	return f.Badges, nil
}

func mustParseCatalog(raw []byte) []BadgeInfo {
	c, err := ParseCatalog(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Catalog retorna uma cópia do catálogo na ordem de exibição.
func Catalog() []BadgeInfo {
	out := make([]BadgeInfo, len(badgeCatalog))
	copy(out, badgeCatalog)
	return out
}

// LookupBadge busca a entrada do catálogo pelo id.
func LookupBadge(id BadgeID) (BadgeInfo, bool) {
	for _, b := range badgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return BadgeInfo{}, false
}

func catalogPosition(id BadgeID) int {
	for i, b := range badgeCatalog {
		if b.ID == id {
			return i
		}
	}
	return len(badgeCatalog)
}
