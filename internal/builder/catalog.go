package builder

import (
	"sync"

	"github.com/terra-clan/academy-console/internal/models"
)

// Catalog is the in-memory list of saved templates, kept in server order
type Catalog struct {
	mu        sync.RWMutex
	templates []models.Template
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Replace swaps the whole list for a fresh server listing
func (c *Catalog) Replace(list []models.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.templates = make([]models.Template, 0, len(list))
	for _, t := range list {
		c.templates = append(c.templates, t.Clone())
	}
}

// Upsert stores a template returned by the server, replacing the entry with
// the same id or appending a new one
func (c *Catalog) Upsert(t models.Template) {
	if !t.IsPersisted() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.templates {
		if c.templates[i].ID != nil && *c.templates[i].ID == *t.ID {
			c.templates[i] = t.Clone()
			return
		}
	}
	c.templates = append(c.templates, t.Clone())
}

// Remove drops the template with the given id
func (c *Catalog) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.templates {
		if c.templates[i].ID != nil && *c.templates[i].ID == id {
			c.templates = append(c.templates[:i], c.templates[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a copy of the template with the given id
func (c *Catalog) Get(id int64) (models.Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, t := range c.templates {
		if t.ID != nil && *t.ID == id {
			return t.Clone(), true
		}
	}
	return models.Template{}, false
}

// List returns copies of all templates
func (c *Catalog) List() []models.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]models.Template, 0, len(c.templates))
	for _, t := range c.templates {
		result = append(result, t.Clone())
	}
	return result
}
