package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshRecord is one active session of a user. The set of records for a
// user is exactly the set of refresh tokens that can still be exchanged for
// a new token pair; a record removed here makes its token unusable even if
// the token's signature and expiry are still valid.
type RefreshRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type RefreshRecordRepository interface {
	Append(rec *RefreshRecord) error

	// GetByTokenHash looks up a record by exact token hash, scoped to its
	// owning user.
	GetByTokenHash(userID uuid.UUID, tokenHash string) (*RefreshRecord, error)

	// Replace swaps the token value of the record currently holding
	// oldTokenHash. It is a compare-and-swap: if the old value is gone
	// (rotated or logged out by a concurrent request) no write happens and
	// Replace returns false.
	Replace(userID uuid.UUID, oldTokenHash, newTokenHash string, expiresAt time.Time) (bool, error)

	// DeleteByTokenHash removes a record by exact token hash. Deleting an
	// absent record is not an error.
	DeleteByTokenHash(userID uuid.UUID, tokenHash string) error

	// DeleteAllByUserID removes every record of the user ("logout everywhere").
	DeleteAllByUserID(userID uuid.UUID) error

	ListByUserID(userID uuid.UUID) ([]*RefreshRecord, error)
}
