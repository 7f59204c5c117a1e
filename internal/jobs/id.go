package jobs

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GenerateID creates a new random job ID: a version 4 UUID rendered as 32
// lowercase hex characters with no dashes.
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate job ID")
	}
	return hex.EncodeToString(id[:])
}

// ValidID reports whether s has the shape produced by GenerateID.
func ValidID(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
