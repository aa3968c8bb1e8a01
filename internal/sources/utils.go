package sources

import (
	"crypto/sha256"
	"fmt"
)

// generateHash gives records without a natural id a stable synthetic one.
func generateHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}
