package collection

import (
	"strings"

	"github.com/google/uuid"
)

const tempPrefix = "temp-"

// TempID returns a placeholder ID for an entry the server has not
// confirmed yet.
func TempID() string {
	return tempPrefix + uuid.NewString()
}

// IsTemp reports whether id was created by TempID.
func IsTemp(id string) bool {
	return id == "" || strings.HasPrefix(id, tempPrefix)
}
