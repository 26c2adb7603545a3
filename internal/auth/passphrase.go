package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/carpool/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid passphrase")
	ErrWeakPassphrase     = errors.New("passphrase must be at least 8 characters")
	ErrUnknownName        = errors.New("name is not in the roster")
)

// PassphraseAuthenticator checks a single shared passphrase, stored as a
// bcrypt hash, for the whole carpool group.
type PassphraseAuthenticator struct {
	hash   []byte
	roster models.Roster
}

// NewPassphraseAuthenticator creates an authenticator for a bcrypt hash as
// produced by HashPassphrase. Names given at login must be in roster.
func NewPassphraseAuthenticator(hash string, roster models.Roster) (*PassphraseAuthenticator, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid passphrase hash: %w", err)
	}
	return &PassphraseAuthenticator{
		hash:   []byte(hash),
		roster: roster,
	}, nil
}

// ValidateCredential checks if the passphrase meets minimum requirements.
func ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassphrase
	}
	return nil
}

// HashPassphrase returns the bcrypt hash to put in the configuration.
func HashPassphrase(passphrase string) (string, error) {
	// Validate passphrase strength
	if err := ValidateCredential(passphrase); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passphrase: %w", err)
	}
	return string(hashed), nil
}

// Authenticate verifies the passphrase and returns a new session identity.
func (a *PassphraseAuthenticator) Authenticate(ctx context.Context, name, credential string) (*Identity, error) {
	// Compare passphrase hash
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	name = strings.TrimSpace(name)
	if name != "" && len(a.roster.Participants) > 0 && !a.roster.IsParticipant(name) {
		return nil, ErrUnknownName
	}

	return &Identity{
		SessionID: uuid.NewString(),
		Name:      name,
	}, nil
}
