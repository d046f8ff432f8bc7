// Package identity is the identity-provider collaborator: account
// creation, credential checks, session tokens, and per-client
// sign-in/sign-out notification streams.
package identity

import (
	"context"
	"log/slog"

	"chitchat/auth"
	"chitchat/domain"
	"chitchat/errors"
	"chitchat/repositories"
)

// profileMirror is the slice of the document store the provider writes
// to: every account gets a mirrored profile document at registration,
// exactly like the original's users collection.
type profileMirror interface {
	SetUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
}

type Provider struct {
	log      *slog.Logger
	accounts *repositories.AccountRepository
	mirror   profileMirror
	tokens   *auth.TokenManager
}

func NewProvider(log *slog.Logger, accounts *repositories.AccountRepository,
	mirror profileMirror, tokens *auth.TokenManager) *Provider {
	return &Provider{log: log, accounts: accounts, mirror: mirror, tokens: tokens}
}

// CreateAccount registers a new user and returns the signed-in identity
// with its session token. The profile document is mirrored into the
// document store so the new user appears on other rosters immediately.
func (p *Provider) CreateAccount(ctx context.Context, email, password, displayName string) (domain.User, string, error) {
	valReq := auth.RegisterRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}

	// Validate before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return domain.User{}, "", err
	}

	// Hashing happens here so the repository never sees plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}

	account, err := p.accounts.CreateAccount(email, hashedPassword, displayName)
	if err != nil {
		return domain.User{}, "", err // propagates ErrUserAlreadyExists
	}

	user := domain.User{
		ID:          account.ID,
		DisplayName: account.DisplayName,
		Email:       account.Email,
	}
	if err = p.mirror.SetUser(ctx, user); err != nil {
		p.log.Error("Profile mirror write failed after registration",
			"user_id", user.ID, "error", err)
		return domain.User{}, "", err
	}

	token, err := p.tokens.Generate(account.ID)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}
	return user, token, nil
}

// Authenticate verifies credentials and issues a session token.
// Every failure collapses to ErrInvalidCredentials to prevent user
// enumeration.
func (p *Provider) Authenticate(_ context.Context, email, password string) (domain.User, string, error) {
	account, err := p.accounts.GetAccountByEmail(email)
	if err != nil {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, account.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := p.tokens.Generate(account.ID)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	user := domain.User{
		ID:          account.ID,
		DisplayName: account.DisplayName,
		Email:       account.Email,
		PhotoURL:    account.PhotoURL,
	}
	return user, token, nil
}

// VerifyToken validates a session token and resolves the identity it
// names, reading the live profile document rather than the claims so a
// reconnecting client sees its current displayName and photo.
func (p *Provider) VerifyToken(ctx context.Context, token string) (domain.User, error) {
	claims, err := p.tokens.Validate(token)
	if err != nil {
		return domain.User{}, errors.ErrInvalidCredentials
	}
	return p.mirror.GetUser(ctx, claims.UserID)
}

// UpdateProfileFields applies a partial update to the provider's own
// record of a user. The document store copy is the caller's concern.
func (p *Provider) UpdateProfileFields(_ context.Context, id string, fields domain.ProfileFields) error {
	return p.accounts.UpdateAccountFields(id, fields)
}
