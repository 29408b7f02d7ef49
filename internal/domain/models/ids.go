package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID mints a timestamp-based id for a freshly created entity. Uniqueness
// is caller-guaranteed at creation time, not validated afterwards.
func NewID() string {
	return fmt.Sprintf("%d", time.Now().UnixMilli())
}

// NewUniqueID mints a collision-resistant id for records that may be created
// in bulk within the same millisecond, such as the movement entries stamped
// onto every hive of a multi-hive transfer.
func NewUniqueID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}
