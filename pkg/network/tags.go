package network

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewTag generates a request tag unique among concurrently pending
// requests: millisecond timestamp plus a random suffix.
func NewTag() string {
	return fmt.Sprintf("%d.%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
