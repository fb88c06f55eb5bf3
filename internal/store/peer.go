package store

import "github.com/mmoforge/skillstore/internal/models"

// PeerStore is the save surface of an alternative profile backend (for
// example a flat-file store). ConvertUsers streams every stored profile
// through it; implementations report per-profile success.
type PeerStore interface {
	SaveUser(profile *models.PlayerProfile) bool
}
