package uid

import (
	"crypto/rand"
	"math/big"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 IDs using the snowflake layout.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a Snowflake generator.
//
// The node number is taken from the NODE_ID environment variable; when unset
// or invalid a random node in [0, 1024) is used.
func NewSnowflake() (*Snowflake, error) {
	nodeID, err := strconv.ParseInt(os.Getenv("NODE_ID"), 10, 64)
	if err != nil || nodeID < 0 || nodeID > 1023 {
		n, randErr := rand.Int(rand.Reader, big.NewInt(1024))
		if randErr != nil {
			return nil, randErr
		}
		nodeID = n.Int64()
	}

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
