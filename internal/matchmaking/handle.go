package matchmaking

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
)

// newHandle creates a random, memorable ephemeral handle for one
// connection. Format: adjective-animal (e.g. "sparkly-otter"). The
// handle is the only identity a partner ever sees; the underlying
// connection ID never leaves the server.
//
// taken reports whether a candidate is already in use. After a few
// collisions a random numeric suffix is appended instead of looping
// forever on a crowded server.
func newHandle(taken func(string) bool) string {
	for attempt := 0; attempt < 10; attempt++ {
		handle := fmt.Sprintf("%s-%s",
			adjectives[randomIndex(len(adjectives))],
			animals[randomIndex(len(animals))],
		)
		if attempt >= 5 {
			handle = fmt.Sprintf("%s-%d", handle, randomIndex(100))
		}
		if !taken(handle) {
			return handle
		}
	}
	// 1200 two-word combinations, 120000 suffixed ones; ten straight
	// collisions means something else is wrong, fall back to a wide
	// numeric suffix and move on.
	return fmt.Sprintf("stranger-%d", randomIndex(1_000_000))
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		slog.Error("random source unavailable", "error", err)
		panic(err)
	}
	return int(n.Int64())
}
