package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/recipe-app/backend/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrFullNameRequired   = errors.New("full name is required")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthUsecase struct {
	userRepo    domain.UserRepository
	sessionRepo domain.RefreshRecordRepository
	eventRepo   domain.LoginEventRepository
	tokens      *TokenIssuer
	hasher      PasswordHasher
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	ExpiresAt    int64  `json:"expires_at"`
	// The refresh token is transported in a cookie, never in a body.
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

func NewAuthUsecase(userRepo domain.UserRepository, sessionRepo domain.RefreshRecordRepository, eventRepo domain.LoginEventRepository, tokens *TokenIssuer, hasher PasswordHasher) *AuthUsecase {
	return &AuthUsecase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		eventRepo:   eventRepo,
		tokens:      tokens,
		hasher:      hasher,
	}
}

// Signup creates a user and its first session. Full name is validated before
// anything is written; a duplicate username fails before any token is minted.
func (u *AuthUsecase) Signup(username, fullName, password, ipAddress, userAgent string) (*domain.User, *TokenPair, error) {
	if fullName == "" {
		return nil, nil, ErrFullNameRequired
	}

	existing, err := u.userRepo.GetByUsername(username)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrUsernameExists
	}

	hashedPassword, err := u.hasher.Hash(password)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Username:     username,
		FullName:     fullName,
		PasswordHash: hashedPassword,
	}

	if err := u.userRepo.Create(user); err != nil {
		// Two signups for the same username can race past the pre-check;
		// the unique constraint settles it.
		if errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, nil, ErrUsernameExists
		}
		return nil, nil, err
	}

	tokens, err := u.openSession(user.ID)
	if err != nil {
		return nil, nil, err
	}

	u.recordLogin(user.ID, "signup", ipAddress, userAgent)

	return user, tokens, nil
}

// Login verifies credentials and opens a new session. The failure is the
// same whether the username is unknown or the password is wrong.
func (u *AuthUsecase) Login(username, password, ipAddress, userAgent string) (*domain.User, *TokenPair, error) {
	user, err := u.userRepo.GetByUsername(username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := u.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := u.openSession(user.ID)
	if err != nil {
		return nil, nil, err
	}

	// Best effort; a failed audit write must not fail the login.
	u.userRepo.UpdateLastLogin(user.ID)
	u.recordLogin(user.ID, "password", ipAddress, userAgent)

	return user, tokens, nil
}

// Refresh exchanges a refresh token for a new token pair, rotating the
// stored record in place. The signature/expiry check comes first so forged
// and expired tokens are rejected without touching storage. The store lookup
// second enforces revocation: a cryptographically valid token that was
// rotated out or logged out is rejected here. The swap is conditional on the
// old token value, so of two concurrent refreshes of the same token only one
// can succeed.
func (u *AuthUsecase) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := u.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	oldHash := hashToken(refreshToken)

	record, err := u.sessionRepo.GetByTokenHash(claims.UserID, oldHash)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidToken
	}

	accessToken, expiresAt, err := u.tokens.IssueAccess(claims.UserID)
	if err != nil {
		return nil, err
	}
	newRefreshToken, refreshExpiresAt, err := u.tokens.IssueRefresh(claims.UserID)
	if err != nil {
		return nil, err
	}

	swapped, err := u.sessionRepo.Replace(claims.UserID, oldHash, hashToken(newRefreshToken), refreshExpiresAt)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// Lost the race against another refresh or a logout; the record is
		// already gone and nothing was written.
		return nil, ErrInvalidToken
	}

	return &TokenPair{
		AccessToken:      accessToken,
		ExpiresAt:        expiresAt.Unix(),
		RefreshToken:     newRefreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Logout removes the session matching the presented refresh token. It is
// idempotent: an absent or already-removed token is not an error.
func (u *AuthUsecase) Logout(userID uuid.UUID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return u.sessionRepo.DeleteByTokenHash(userID, hashToken(refreshToken))
}

// LogoutAll removes every session of the user, so every outstanding refresh
// token fails on its next use.
func (u *AuthUsecase) LogoutAll(userID uuid.UUID) error {
	return u.sessionRepo.DeleteAllByUserID(userID)
}

// ValidateAccessToken resolves a bearer access token to its claims. No store
// lookup: access tokens are stateless.
func (u *AuthUsecase) ValidateAccessToken(tokenString string) (*Claims, error) {
	return u.tokens.VerifyAccess(tokenString)
}

func (u *AuthUsecase) Sessions(userID uuid.UUID) ([]*domain.RefreshRecord, error) {
	return u.sessionRepo.ListByUserID(userID)
}

func (u *AuthUsecase) LoginHistory(userID uuid.UUID, limit, offset int) ([]*domain.LoginEvent, error) {
	return u.eventRepo.ListByUser(userID, limit, offset)
}

func (u *AuthUsecase) GetUserByID(id uuid.UUID) (*domain.User, error) {
	return u.userRepo.GetByID(id)
}

// openSession mints a token pair and appends the refresh record. Appends
// never conflict with other sessions; a user may hold any number of
// concurrent sessions across devices.
func (u *AuthUsecase) openSession(userID uuid.UUID) (*TokenPair, error) {
	accessToken, expiresAt, err := u.tokens.IssueAccess(userID)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiresAt, err := u.tokens.IssueRefresh(userID)
	if err != nil {
		return nil, err
	}

	record := &domain.RefreshRecord{
		UserID:    userID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: refreshExpiresAt,
	}
	if err := u.sessionRepo.Append(record); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		ExpiresAt:        expiresAt.Unix(),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (u *AuthUsecase) recordLogin(userID uuid.UUID, method, ipAddress, userAgent string) {
	u.eventRepo.Create(&domain.LoginEvent{
		UserID:     userID,
		AuthMethod: method,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	})
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
