package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewSnapshotID 產生快照 ID
func NewSnapshotID() string {
	return uuid.NewString()
}

// ShortID 取 ID 前八碼，供日誌使用
func ShortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
