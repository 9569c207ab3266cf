package common

import (
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	snowNode *snowflake.Node
	snowOnce sync.Once
	nodeID   int64 = 1
)

// SetNodeID sets the snowflake node before the first id is generated.
// Later calls have no effect on an initialized node.
func SetNodeID(id int64) {
	nodeID = id
}

func node() *snowflake.Node {
	snowOnce.Do(func() {
		n, err := snowflake.NewNode(nodeID)
		if err != nil {
			zap.L().Warn("invalid snowflake node id, fallback to 1", zap.Int64("node_id", nodeID), zap.Error(err))
			n, _ = snowflake.NewNode(1)
		}
		snowNode = n
	})
	return snowNode
}

// UUIDint64 returns a time ordered unique id
func UUIDint64() int64 {
	return node().Generate().Int64()
}

// IsEmpty reports whether s is blank
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IfEmptyStr returns def when src is blank
func IfEmptyStr(src string, def string) string {
	if IsEmpty(src) {
		return def
	}
	return src
}

// InSlice reports whether v is in list
func InSlice(v string, list []string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
