package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"casino/domain/interfaces"
)

type fairnessService struct{}

// NewFairnessService creates a new fairness service
func NewFairnessService() interfaces.FairnessService {
	return &fairnessService{}
}

// NewServerSeed generates a 32-byte server seed and its SHA-256 commitment.
// The hash is published before any bet; the seed itself only on rotation.
func (s *fairnessService) NewServerSeed() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate server seed: %w", err)
	}
	seed := hex.EncodeToString(raw)
	return seed, HashServerSeed(seed), nil
}

// HashServerSeed returns the hex SHA-256 commitment of a server seed.
func HashServerSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// Outcome derives a uniform float in [0,1) from HMAC-SHA256 keyed by the
// server seed over "clientSeed:nonce:step". Pure function: identical inputs
// always produce identical outcomes, so settlement is replay-safe and every
// result is verifiable once the server seed is revealed.
func (s *fairnessService) Outcome(serverSeed, clientSeed string, nonce int64, step int) float64 {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(mac, "%s:%d:%d", clientSeed, nonce, step)
	digest := mac.Sum(nil)

	v := binary.BigEndian.Uint64(digest[:8])
	return float64(v) / float64(1<<63) / 2
}

// MinePositions fixes the hazard map for a mines session at creation time.
// Each mine consumes one step index in a partial Fisher-Yates draw over the
// remaining tiles, so the whole map is determined by the seed triple and
// can be verified after reveal.
func (s *fairnessService) MinePositions(serverSeed, clientSeed string, nonce int64, tiles, mines int) []int {
	remaining := make([]int, tiles)
	for i := range remaining {
		remaining[i] = i
	}

	positions := make([]int, 0, mines)
	for step := 0; step < mines; step++ {
		roll := s.Outcome(serverSeed, clientSeed, nonce, step)
		idx := int(roll * float64(len(remaining)))
		if idx >= len(remaining) {
			idx = len(remaining) - 1
		}
		positions = append(positions, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return positions
}
