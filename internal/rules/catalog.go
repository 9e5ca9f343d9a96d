package rules

import (
	"fmt"
	"strings"
)

// Catalog is an immutable, ordered set of rules. Declared order is evaluation
// order and is preserved by every method that returns rules.
type Catalog struct {
	rules []Rule
	byID  map[string]int
}

func NewCatalog(rs ...Rule) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(rs))}
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byID[r.ID]; exists {
			return nil, fmt.Errorf("rule %s already registered", r.ID)
		}
		c.byID[r.ID] = len(c.rules)
		c.rules = append(c.rules, r)
	}
	return c, nil
}

// MustCatalog is NewCatalog for built-in tables.
func MustCatalog(rs ...Rule) *Catalog {
	c, err := NewCatalog(rs...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.rules)
}

func (c *Catalog) List() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

func (c *Catalog) ForKind(kind Kind) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (c *Catalog) Get(id string) (Rule, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Resolve returns the rules named by a comma-separated selector, in selector
// order. An empty selector selects every rule.
func (c *Catalog) Resolve(selector string) ([]Rule, error) {
	if strings.TrimSpace(selector) == "" {
		return c.List(), nil
	}
	var selected []Rule
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		r, ok := c.Get(id)
		if !ok {
			return nil, fmt.Errorf("rule not found: %s", id)
		}
		selected = append(selected, r)
	}
	return selected, nil
}

// Select narrows the catalog to the selector minus the disabled IDs, keeping
// declared order. Unknown IDs in either list are errors.
//
// File-path rules guard protected files unconditionally: the selector never
// drops them and disabling one is an error.
func (c *Catalog) Select(selector string, disabled []string) (*Catalog, error) {
	chosen, err := c.Resolve(selector)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(chosen))
	for _, r := range chosen {
		keep[r.ID] = true
	}
	for _, r := range c.rules {
		if r.Kind == KindFilePath {
			keep[r.ID] = true
		}
	}
	for _, id := range disabled {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		r, ok := c.Get(id)
		if !ok {
			return nil, fmt.Errorf("cannot disable unknown rule: %s", id)
		}
		if r.Kind == KindFilePath {
			return nil, fmt.Errorf("cannot disable protected path rule: %s", id)
		}
		delete(keep, id)
	}
	var out []Rule
	for _, r := range c.rules {
		if keep[r.ID] {
			out = append(out, r)
		}
	}
	return NewCatalog(out...)
}

// With returns a new catalog with extra rules appended after the existing ones.
func (c *Catalog) With(extra ...Rule) (*Catalog, error) {
	all := append(c.List(), extra...)
	return NewCatalog(all...)
}
