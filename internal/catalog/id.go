package catalog

import (
	"encoding/binary"
	"strconv"

	"github.com/google/uuid"
)

const idLength = 9

// NewID returns a short random base-36 identifier. Uniqueness is only
// probabilistic; callers do not check for collisions.
func NewID() string {
	u := uuid.New()
	// The high bits of this half carry the RFC 4122 variant, so keep the tail.
	s := strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36)
	return s[len(s)-idLength:]
}
