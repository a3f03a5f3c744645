package btree

import "fmt"

const (
	// DefaultMaxLeafSize is the default capacity of a leaf node.
	DefaultMaxLeafSize = 48
	// DefaultMaxInnerSize is the default fanout of an inner node.
	DefaultMaxInnerSize = 64
	// minNodeCapacity is the smallest node capacity for which midpoint splits
	// still produce two non-empty halves after an insert.
	minNodeCapacity = 4
)

// Config configures node capacities of a tree. The zero value selects the
// defaults.
type Config struct {
	// MaxLeafSize is the maximum number of items held by a leaf.
	MaxLeafSize int
	// MaxInnerSize is the maximum number of children of an inner node.
	MaxInnerSize int
}

func (cfg Config) normalized() Config {
	if cfg.MaxLeafSize == 0 {
		cfg.MaxLeafSize = DefaultMaxLeafSize
	}
	if cfg.MaxInnerSize == 0 {
		cfg.MaxInnerSize = DefaultMaxInnerSize
	}
	return cfg
}

func (cfg Config) validate() error {
	cfg = cfg.normalized()
	if cfg.MaxLeafSize < minNodeCapacity {
		return fmt.Errorf("%w: max leaf size must be >= %d, is %d",
			ErrInvalidConfig, minNodeCapacity, cfg.MaxLeafSize)
	}
	if cfg.MaxInnerSize < minNodeCapacity {
		return fmt.Errorf("%w: max inner size must be >= %d, is %d",
			ErrInvalidConfig, minNodeCapacity, cfg.MaxInnerSize)
	}
	return nil
}
