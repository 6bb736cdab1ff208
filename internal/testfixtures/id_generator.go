package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator hands out predictable operation ids such as "save-1", "save-2".
type IDGenerator struct {
	prefix string
	issued atomic.Uint64
}

// NewIDGenerator uses prefix for every id; an empty prefix becomes "op".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "op"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next id.
func (g *IDGenerator) Next() string {
	return g.prefix + "-" + strconv.FormatUint(g.issued.Add(1), 10)
}

// NextFunc exposes Next for Options.OperationID.
func (g *IDGenerator) NextFunc() func() string {
	return g.Next
}

// Issued reports how many ids were handed out.
func (g *IDGenerator) Issued() uint64 {
	return g.issued.Load()
}
