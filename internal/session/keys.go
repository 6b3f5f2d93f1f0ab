package session

import (
	"strings"

	"github.com/google/uuid"
)

// TempKeyPrefix marks a locally generated session key.
const TempKeyPrefix = "temp-"

// NewTempKey returns a fresh temporary session key.
func NewTempKey() string {
	return TempKeyPrefix + uuid.NewString()
}

// IsTempKey reports whether key was generated by NewTempKey.
func IsTempKey(key string) bool {
	return strings.HasPrefix(key, TempKeyPrefix)
}
