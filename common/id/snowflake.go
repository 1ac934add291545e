package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// Generator hands out unique report suffixes.
type Generator interface {
	NewString() string
}

// SnowflakeGenerator uses the package node; Init must have been called.
type SnowflakeGenerator struct{}

func (SnowflakeGenerator) NewString() string {
	return New().Base36()
}

// New generates a new time-ordered unique ID.
func New() snowflake.ID {
	if node == nil {
		panic("id: Init not called before New")
	}
	return node.Generate()
}
