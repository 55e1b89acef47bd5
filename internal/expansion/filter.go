package expansion

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dyluth/expkit/pkg/confbind"
)

// Criteria selects expanded configs by field value.
// All conditions are ANDed together - a config must match ALL of them.
type Criteria struct {
	Where map[string]string // field name -> glob pattern on the rendered value
}

// ParseCriteria builds Criteria from "key=glob" expressions.
func ParseCriteria(exprs []string) (*Criteria, error) {
	c := &Criteria{Where: make(map[string]string, len(exprs))}
	for _, expr := range exprs {
		key, pattern, ok := strings.Cut(expr, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter: %q (use key=glob)", expr)
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern for %s: %w", key, err)
		}
		c.Where[key] = pattern
	}
	return c, nil
}

// Matches reports whether rec satisfies every condition. A field that is
// absent from rec never matches.
func (c *Criteria) Matches(rec confbind.Record) bool {
	for key, pattern := range c.Where {
		v, ok := rec.Get(key)
		if !ok {
			return false
		}
		matched, err := filepath.Match(pattern, renderValue(v))
		if err != nil || !matched {
			return false
		}
	}
	return true
}

// HasFilters returns true if any condition is set.
func (c *Criteria) HasFilters() bool {
	return c != nil && len(c.Where) > 0
}

// Select returns the configs matching c, keeping their original indexes.
func (c *Criteria) Select(configs []Config) []Config {
	if !c.HasFilters() {
		return configs
	}
	selected := make([]Config, 0, len(configs))
	for _, cfg := range configs {
		if c.Matches(cfg.Record) {
			selected = append(selected, cfg)
		}
	}
	return selected
}

// String renders the criteria in key order, e.g. for error messages.
func (c *Criteria) String() string {
	keys := make([]string, 0, len(c.Where))
	for k := range c.Where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + c.Where[k]
	}
	return strings.Join(parts, " ")
}

// renderValue gives strings unquoted and everything else in its debug form.
func renderValue(v confbind.Value) string {
	if s, err := v.AsString(); err == nil {
		return s
	}
	return v.GoString()
}
