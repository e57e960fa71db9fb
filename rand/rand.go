// Package rand provides the random numeric identifier generation the
// address space uses when a caller asks the store to allocate a NodeId.
package rand

import "golang.org/x/exp/rand"

// Uint32 returns a random value usable as a numeric NodeId identifier.
// Zero is reserved to mean "allocate", so it is never returned.
func Uint32() uint32 {
	for {
		if v := rand.Uint32(); v != 0 {
			return v
		}
	}
}
