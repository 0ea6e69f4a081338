package models

import "fmt"

// IDGenerator hands out process-unique identifiers with a fixed prefix.
// Each workspace owns its own generators so tests never share counters.
type IDGenerator struct {
	prefix string
	next   uint64
}

// NewIDGenerator returns a generator whose identifiers start with prefix.
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier, starting at "<prefix>-1".
func (g *IDGenerator) Next() string {
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}
