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
// Only the first call has any effect.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new time-ordered int64 ID. If Init was never called the
// generator falls back to node 1, which is what tests rely on.
func New() int64 {
	_ = Init(1)
	return node.Generate().Int64()
}
