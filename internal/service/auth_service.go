// Package service holds the authentication flows: registration, login,
// session resolution and password reset.  It sits between the HTTP handlers
// and the Credential Store and owns the error taxonomy the handlers map to
// status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"

	"github.com/iliyamo/hospital-portal/internal/mail"
	"github.com/iliyamo/hospital-portal/internal/model"
	"github.com/iliyamo/hospital-portal/internal/repository"
	"github.com/iliyamo/hospital-portal/internal/token"
	"github.com/iliyamo/hospital-portal/internal/utils"
)

// UserStore is the slice of the Credential Store the auth flows need.
// *repository.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindConflict(ctx context.Context, username, email, phone string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

// AuthService wires the Credential Store to the token issuers and the mailer.
type AuthService struct {
	Users       UserStore
	Sessions    *token.Issuer
	Resets      *token.ResetIssuer
	Mailer      mail.Mailer
	Guard       ResetGuard // nil means reset links stay valid until they age out
	BcryptCost  int
	PhoneRegion string
	FrontendURL string
	Log         *slog.Logger
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

func (in *RegisterInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
}

// Validate checks presence first so a payload with gaps is always reported
// as missing fields, then format.
func (in RegisterInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Required),
		validation.Field(&in.LastName, validation.Required),
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.PhoneNumber, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
	if err != nil {
		return newValidationError(ErrMissingFields, err)
	}
	err = validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Length(1, 100)),
		validation.Field(&in.LastName, validation.Length(1, 100)),
		validation.Field(&in.Username, validation.Length(3, 100)),
		validation.Field(&in.Email, validation.Length(3, 100), is.Email),
		validation.Field(&in.PhoneNumber, validation.Length(5, 20)),
		validation.Field(&in.Password, validation.Length(1, 72)),
	)
	if err != nil {
		return newValidationError(ErrInvalidInput, err)
	}
	return nil
}

// Register validates in, pre-checks uniqueness and inserts the user.  The
// unique indexes remain the final word: a concurrent insert that wins the
// race still turns this call into ErrDuplicateIdentity.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return model.User{}, err
	}
	in.PhoneNumber = normalizePhone(in.PhoneNumber, s.PhoneRegion)

	_, err := s.Users.FindConflict(ctx, in.Username, in.Email, in.PhoneNumber)
	switch {
	case err == nil:
		return model.User{}, ErrDuplicateIdentity
	case !errors.Is(err, repository.ErrNotFound):
		return model.User{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	u := model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, ErrDuplicateIdentity
		}
		return model.User{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return u, nil
}

// normalizePhone returns the E.164 form of raw when it parses as a valid
// number for region, and raw unchanged otherwise.
func normalizePhone(raw, region string) string {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

// Login checks the credentials and issues a session token.  An unknown
// username and a wrong password both return ErrInvalidCredentials after a
// bcrypt comparison of similar cost.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		utils.BurnCompare(password, s.BcryptCost)
		return LoginResult{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}
	raw, exp, err := s.Sessions.Issue(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: raw, ExpiresAt: exp, User: u}, nil
}

// Authenticate verifies a session token and resolves its user.  Token
// failures come back as the token package's sentinels; a user deleted after
// the token was minted yields ErrUserNotFound.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.User, error) {
	id, err := s.Sessions.Verify(raw)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.Users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return u, nil
}

// ResetLink builds the front-end URL a reset token is delivered in.
func (s *AuthService) ResetLink(tok string) string {
	return s.FrontendURL + "/resetpassword/" + url.PathEscape(tok)
}

// ForgotPassword mails a reset link to email if it belongs to a user.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrMissingEmail
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	tok, err := s.Resets.IssueReset(u.Email)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendPasswordReset(ctx, u.Email, s.ResetLink(tok)); err != nil {
		s.Log.Error("reset mail failed", "user_id", u.ID, "err", err)
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return nil
}

// ResetPassword overwrites the password of the user the reset token was
// issued for.  With a Guard configured, each token works once.
func (s *AuthService) ResetPassword(ctx context.Context, raw, newPassword string) error {
	if newPassword == "" {
		return ErrMissingPassword
	}
	if err := validation.Validate(newPassword, validation.Length(1, 72)); err != nil {
		return &ValidationError{Kind: ErrInvalidInput, Fields: map[string]string{"password": err.Error()}}
	}
	email, err := s.Resets.VerifyReset(raw)
	if err != nil {
		return ErrInvalidResetToken
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	hash, err := utils.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if s.Guard != nil {
		fresh, err := s.Guard.Claim(ctx, raw, s.Resets.MaxAge())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if !fresh {
			return ErrInvalidResetToken
		}
	}
	if err := s.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		if s.Guard != nil {
			if rerr := s.Guard.Release(ctx, raw); rerr != nil {
				s.Log.Warn("release reset claim failed", "err", rerr)
			}
		}
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
