// Package catalog holds the static model catalog: every model the gateway
// can serve, each with its ordered provider mappings, prices, capability
// flags, and lifecycle timestamps. The catalog is loaded once at process
// start and never mutated afterwards.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the immutable model list plus the auto-route allow-list.
type Catalog struct {
	models    []ModelDefinition
	byID      map[string]int
	allowList map[string]struct{}
}

type catalogFile struct {
	Models    []ModelDefinition `yaml:"models"`
	AutoRoute struct {
		AllowList []string `yaml:"allow-list"`
	} `yaml:"auto-route"`
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Catalog from YAML payload bytes.
func Parse(data []byte) (*Catalog, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("catalog: empty payload")
	}

	var file catalogFile
	if errUnmarshal := yaml.Unmarshal(data, &file); errUnmarshal != nil {
		return nil, fmt.Errorf("catalog: decode: %w", errUnmarshal)
	}

	cat := &Catalog{
		models:    make([]ModelDefinition, 0, len(file.Models)),
		byID:      make(map[string]int, len(file.Models)),
		allowList: make(map[string]struct{}, len(file.AutoRoute.AllowList)),
	}

	for i := range file.Models {
		def := file.Models[i]
		def.ID = strings.TrimSpace(def.ID)
		if def.ID == "" {
			return nil, fmt.Errorf("catalog: model %d: missing id", i)
		}
		key := strings.ToLower(def.ID)
		if _, dup := cat.byID[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate model id %q", def.ID)
		}
		for j := range def.Mappings {
			mapping := &def.Mappings[j]
			mapping.ProviderID = strings.TrimSpace(mapping.ProviderID)
			if mapping.ProviderID == "" {
				return nil, fmt.Errorf("catalog: model %q mapping %d: missing provider", def.ID, j)
			}
			if strings.TrimSpace(mapping.ModelName) == "" {
				mapping.ModelName = def.ID
			}
			for k, level := range mapping.Capabilities.ReasoningLevels {
				normalized := strings.ToLower(strings.TrimSpace(level))
				if !knownReasoningLevel(normalized) {
					return nil, fmt.Errorf("catalog: model %q provider %q: unknown reasoning level %q", def.ID, mapping.ProviderID, level)
				}
				mapping.Capabilities.ReasoningLevels[k] = normalized
			}
		}
		cat.byID[key] = len(cat.models)
		cat.models = append(cat.models, def)
	}

	for _, id := range file.AutoRoute.AllowList {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		cat.allowList[id] = struct{}{}
	}

	return cat, nil
}

// Models returns the catalog definitions in file order.
func (c *Catalog) Models() []ModelDefinition {
	if c == nil {
		return nil
	}
	return c.models
}

// Lookup returns the definition for a model id, case-insensitively.
func (c *Catalog) Lookup(id string) (ModelDefinition, bool) {
	if c == nil {
		return ModelDefinition{}, false
	}
	idx, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return ModelDefinition{}, false
	}
	return c.models[idx], true
}

// AllowList returns the curated model ids eligible for auto-routing,
// in catalog order.
func (c *Catalog) AllowList() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.allowList))
	for _, def := range c.models {
		if _, ok := c.allowList[strings.ToLower(def.ID)]; ok {
			out = append(out, def.ID)
		}
	}
	return out
}

func knownReasoningLevel(level string) bool {
	for _, known := range ReasoningLevelOrder {
		if level == known {
			return true
		}
	}
	return false
}
