package entities

import "time"

// SeedPair is the commit-reveal state backing provably fair outcomes.
// Only the hash of the server seed is shown while the pair is active; the
// seed itself is disclosed on rotation so settled bets can be verified.
type SeedPair struct {
	ID             string     `db:"id"`
	TenantID       string     `db:"tenant_id"`
	UserID         string     `db:"user_id"`
	ServerSeed     string     `db:"server_seed"`
	ServerSeedHash string     `db:"server_seed_hash"`
	ClientSeed     string     `db:"client_seed"`
	Nonce          int64      `db:"nonce"`
	Active         bool       `db:"active"`
	RevealedAt     *time.Time `db:"revealed_at"`
	CreatedAt      time.Time  `db:"created_at"`
}

// Public returns the commitment view safe to expose before reveal.
func (s *SeedPair) Public() SeedCommitment {
	return SeedCommitment{
		ID:             s.ID,
		ServerSeedHash: s.ServerSeedHash,
		ClientSeed:     s.ClientSeed,
		Nonce:          s.Nonce,
	}
}

// SeedCommitment is the pre-reveal public view of a seed pair.
type SeedCommitment struct {
	ID             string
	ServerSeedHash string
	ClientSeed     string
	Nonce          int64
}
