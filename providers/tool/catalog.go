package tool

import (
	"sort"
	"strings"
	"sync"

	"github.com/leofalp/researchagent/providers/ai"
)

// Catalog is a thread-safe registry of tools keyed by lower-cased name.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
}

// NewCatalog creates a catalog pre-populated with tools.
func NewCatalog(tools ...GenericTool) *Catalog {
	c := &Catalog{tools: make(map[string]GenericTool, len(tools))}
	c.AddTools(tools...)
	return c
}

// AddTools registers tools, replacing any existing tool with the same name.
func (c *Catalog) AddTools(tools ...GenericTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		c.tools[strings.ToLower(t.ToolInfo().Name)] = t
	}
}

// Get retrieves a tool by name (case-insensitive).
func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, exists := c.tools[strings.ToLower(name)]
	return t, exists
}

// Remove deletes a tool by name and reports whether it existed.
func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := c.tools[key]; !exists {
		return false
	}
	delete(c.tools, key)
	return true
}

func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// Descriptions returns the tool descriptions sorted by name, so requests
// built from the same catalog are deterministic.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ai.ToolDescription, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, t.ToolInfo())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clone returns an independent copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Catalog{tools: make(map[string]GenericTool, len(c.tools))}
	for name, t := range c.tools {
		clone.tools[name] = t
	}
	return clone
}
