package view

import (
	"sync"

	"web-larek/internal/core/port"
)

// MemoryContainer - серверная замена DOM-элемента: хранит последнюю разметку.
type MemoryContainer struct {
	mu   sync.RWMutex
	id   string
	html string
}

var _ port.Container = (*MemoryContainer)(nil)

func NewContainer(id string) port.Container {
	return &MemoryContainer{id: id}
}

func (c *MemoryContainer) ID() string {
	return c.id
}

func (c *MemoryContainer) Replace(html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.html = html
}

func (c *MemoryContainer) HTML() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.html
}

func (c *MemoryContainer) Clear() {
	c.Replace("")
}
