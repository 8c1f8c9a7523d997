// internal/seed/seed.go
//
// Deterministic dice seeds.
// A game's dice stream is seeded from HMAC-SHA256(salt, "<game id>:<turn>"),
// so a game reloaded from the store at a given turn always continues with
// the same rolls, while the salt keeps ids from predicting them.

package seed

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
)

// ForGame returns the seed for gameID resumed at turn.
func ForGame(salt, gameID string, turn int) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(gameID))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.Itoa(turn)))
	sum := h.Sum(nil)
	// first 8 bytes as the seed
	return binary.BigEndian.Uint64(sum[:8])
}
