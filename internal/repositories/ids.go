package repositories

import (
	"math/rand/v2"
)

const (
	minProductID = 100000
	maxProductID = 999999

	// DefaultIDMaxAttempts bounds how many ids Create tries before giving up.
	DefaultIDMaxAttempts = 10
)

// IDGenerator produces candidate product ids. Uniqueness is enforced by the store.
type IDGenerator func() int

// RandomSixDigitID returns a random id in [100000, 999999].
func RandomSixDigitID() int {
	return minProductID + rand.IntN(maxProductID-minProductID+1)
}
