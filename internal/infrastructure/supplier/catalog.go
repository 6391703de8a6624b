// Package supplier loads supplier portal configurations from YAML files.
package supplier

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Catalog is the read-only set of supplier configurations.
type Catalog struct {
	configs map[string]*supplier.Config
}

// NewCatalog builds a catalog from already parsed configs.
func NewCatalog(configs ...*supplier.Config) (*Catalog, error) {
	c := &Catalog{configs: make(map[string]*supplier.Config, len(configs))}
	for _, cfg := range configs {
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		if _, dup := c.configs[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate supplier id %q", cfg.ID)
		}
		c.configs[cfg.ID] = cfg
	}
	return c, nil
}

// LoadDir parses every *.yaml / *.yml file in dir. A file without an id
// takes its base name as id.
func LoadDir(dir string, logger *zap.Logger) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read supplier dir: %w", err)
	}

	var configs []*supplier.Config
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		cfg, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if cfg.ID == "" {
			cfg.ID = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}
		configs = append(configs, cfg)
	}

	catalog, err := NewCatalog(configs...)
	if err != nil {
		return nil, err
	}

	logger.Info("Supplier configurations loaded",
		zap.String("dir", dir),
		zap.Strings("suppliers", catalog.IDs()),
	)
	return catalog, nil
}

// Parse decodes one supplier file. Unknown keys are rejected.
func Parse(data []byte) (*supplier.Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg supplier.Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal supplier config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required settings and that every pattern compiles.
func Validate(cfg *supplier.Config) error {
	if cfg.ID == "" {
		return fmt.Errorf("supplier id is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return fmt.Errorf("supplier %s: invalid base_url: %w", cfg.ID, err)
	}
	if cfg.Bills.URL == "" {
		return fmt.Errorf("supplier %s: bills.url is required", cfg.ID)
	}

	switch cfg.Bills.DocumentFormat() {
	case supplier.FormatHTML, supplier.FormatJSON, supplier.FormatText:
	default:
		return fmt.Errorf("supplier %s: unknown bills.format %q", cfg.ID, cfg.Bills.Format)
	}

	patterns := []string{cfg.Login.SuccessRedirectPattern}
	for _, name := range supplier.ItemFields {
		if rule := cfg.Bills.Fields.ByName(name); rule != nil {
			patterns = append(patterns, rule.Pattern)
		}
	}
	if cfg.Bills.Header != nil {
		patterns = append(patterns, cfg.Bills.Header.Pattern)
	}
	if cfg.Tenant != nil {
		lists := []*supplier.ListConfig{&cfg.Tenant.Associations, cfg.Tenant.Units}
		for _, list := range lists {
			if list == nil {
				continue
			}
			for _, rule := range []*supplier.FieldRule{list.ID, list.Name, list.Address, list.Number} {
				if rule != nil {
					patterns = append(patterns, rule.Pattern)
				}
			}
		}
		for _, tpl := range cfg.Tenant.CookieTemplates {
			if tpl.Name == "" {
				return fmt.Errorf("supplier %s: cookie template without name", cfg.ID)
			}
		}
	}

	for _, p := range patterns {
		if p == "" {
			continue
		}
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("supplier %s: invalid pattern %q: %w", cfg.ID, p, err)
		}
	}
	return nil
}

// Get returns the configuration of a supplier.
func (c *Catalog) Get(id string) (*supplier.Config, bool) {
	cfg, ok := c.configs[id]
	return cfg, ok
}

// IDs returns the sorted supplier ids.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.configs))
	for id := range c.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
