package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kysclient/IMBA/internal/lib/jwt"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

const PurposePasswordReset = jwt.PurposePasswordReset

var (
	ErrUnknownAccount     = errors.New("account not registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("reset token expired or invalid")
	ErrResetTokenUsed     = errors.New("reset token already used")
	ErrWrongPassword      = errors.New("current password does not match")
	ErrPasswordTooLong    = errors.New("password longer than 72 bytes")
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	tokens      TokenIssuer
	publisher   Publisher
	usedTokens  UsedTokenMarker
	baseURL     string
}

type UserSaver interface {
	SaveUser(ctx context.Context, name, email, phone string, passHash []byte) (models.User, error)
	SaveAdmin(ctx context.Context, name, email, phone string, passHash []byte) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, name, phone string) (models.User, error)
	UpdatePassword(ctx context.Context, id int64, passHash []byte) error
}

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByPhone(ctx context.Context, phone string) (models.User, error)
	UserByIdentifier(ctx context.Context, identifier string) (models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

type TokenIssuer interface {
	Issue(id session.Identity) (string, error)
	IssueReset(userID int64, email, jti string) (string, error)
	ParseReset(token string) (*jwt.ResetClaims, error)
	ResetTTL() time.Duration
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// UsedTokenMarker records consumed reset tokens. MarkResetTokenUsed returns true only
// the first time a jti is seen.
type UsedTokenMarker interface {
	MarkResetTokenUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	ReleaseResetToken(ctx context.Context, jti string) error
}

// New builds the service. usedTokens may be nil, in which case reset tokens can be
// replayed until they expire.
func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	tokens TokenIssuer,
	publisher Publisher,
	usedTokens UsedTokenMarker,
	baseURL string,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		tokens:      tokens,
		publisher:   publisher,
		usedTokens:  usedTokens,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// Signup registers a member and returns it with a fresh session token.
func (a *Auth) Signup(ctx context.Context, name, email, phone, password string) (models.User, string, error) {
	const op = "auth.Signup"

	log := a.log.With(slog.String("op", op))

	if len(password) > maxPasswordBytes {
		return models.User{}, "", ErrPasswordTooLong
	}

	if _, err := a.usrProvider.UserByEmail(ctx, email); err == nil {
		return models.User{}, "", storage.ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := a.usrProvider.UserByPhone(ctx, phone); err == nil {
		return models.User{}, "", storage.ErrPhoneTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := hashPassword(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return models.User{}, "", err
		}
		log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrSaver.SaveUser(ctx, name, email, phone, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) || errors.Is(err, storage.ErrPhoneTaken) {
			log.Warn("signup lost a uniqueness race", sl.Err(err))
			return models.User{}, "", err
		}
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.tokens.Issue(identityOf(user))
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("uid", user.ID))

	return user, token, nil
}

// Login authenticates by email or phone.
func (a *Auth) Login(ctx context.Context, identifier, password string) (models.User, string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, "", ErrUnknownAccount
		}
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", slog.Int64("uid", user.ID))
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(identityOf(user))
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.Int64("uid", user.ID))

	return user, token, nil
}

func (a *Auth) Profile(ctx context.Context, userID int64) (models.User, error) {
	const op = "auth.Profile"

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, err
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateProfile changes name and phone and returns a session token carrying the new
// name. Tokens issued earlier keep their old claims until they expire.
func (a *Auth) UpdateProfile(ctx context.Context, userID int64, name, phone string) (models.User, string, error) {
	const op = "auth.UpdateProfile"

	if other, err := a.usrProvider.UserByPhone(ctx, phone); err == nil && other.ID != userID {
		return models.User{}, "", storage.ErrPhoneTaken
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrSaver.UpdateProfile(ctx, userID, name, phone)
	if err != nil {
		if errors.Is(err, storage.ErrPhoneTaken) || errors.Is(err, storage.ErrNotFound) {
			return models.User{}, "", err
		}
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.tokens.Issue(identityOf(user))
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return user, token, nil
}

func (a *Auth) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	const op = "auth.ChangePassword"

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(current)); err != nil {
		return ErrWrongPassword
	}

	passHash, err := hashPassword(next)
	if err != nil {
		return passwordErr(op, err)
	}

	return a.savePassword(ctx, op, userID, passHash)
}

// FindEmail returns the account name and a masked email for phone.
func (a *Auth) FindEmail(ctx context.Context, phone string) (name, maskedEmail string, err error) {
	const op = "auth.FindEmail"

	user, err := a.usrProvider.UserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", "", err
		}
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	return user.Name, MaskEmail(user.Email), nil
}

// ForgotPassword queues a reset link for email. Unknown addresses succeed silently.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.tokens.IssueReset(user.ID, user.Email, uuid.NewString())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Message{
		Email:   user.Email,
		Name:    user.Name,
		Link:    a.baseURL + "/reset-password?token=" + url.QueryEscape(token),
		Purpose: PurposePasswordReset,
	}

	if err := a.publisher.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("reset link queued", slog.Int64("uid", user.ID))

	return nil
}

// ResetPassword sets a new password for the account named by a reset token.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"

	claims, err := a.tokens.ParseReset(token)
	if err != nil {
		a.log.Info("rejected reset token", slog.String("op", op), sl.Err(err))
		return ErrInvalidResetToken
	}

	passHash, err := hashPassword(newPassword)
	if err != nil {
		return passwordErr(op, err)
	}

	if a.usedTokens == nil {
		return a.savePassword(ctx, op, claims.UserID, passHash)
	}

	first, err := a.usedTokens.MarkResetTokenUsed(ctx, claims.ID, a.tokens.ResetTTL())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !first {
		return ErrResetTokenUsed
	}

	if err := a.savePassword(ctx, op, claims.UserID, passHash); err != nil {
		// The link stays usable when the new password was not stored.
		if rerr := a.usedTokens.ReleaseResetToken(ctx, claims.ID); rerr != nil {
			a.log.Error("failed to release reset token", slog.String("op", op), sl.Err(rerr))
		}
		return err
	}

	return nil
}

// SeedAdmin creates an administrator when the users table is empty. It reports
// whether an account was created.
func (a *Auth) SeedAdmin(ctx context.Context, email, phone, password string) (bool, error) {
	const op = "auth.SeedAdmin"

	if email == "" || password == "" {
		return false, nil
	}

	n, err := a.usrProvider.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return false, nil
	}

	passHash, err := hashPassword(password)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrSaver.SaveAdmin(ctx, "관리자", email, phone, passHash)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("administrator seeded", slog.String("op", op), slog.Int64("uid", user.ID))

	return true, nil
}

func hashPassword(password string) ([]byte, error) {
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func passwordErr(op string, err error) error {
	if errors.Is(err, ErrPasswordTooLong) {
		return err
	}

	return fmt.Errorf("%s: %w", op, err)
}

func (a *Auth) savePassword(ctx context.Context, op string, userID int64, passHash []byte) error {
	if err := a.usrSaver.UpdatePassword(ctx, userID, passHash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MaskEmail keeps the first two characters of the local part: "abcdef@x.com" becomes
// "ab***@x.com".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}

	runes := []rune(local)
	if len(runes) > 2 {
		runes = runes[:2]
	}

	return string(runes) + "***@" + domain
}

func identityOf(u models.User) session.Identity {
	return session.Identity{
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.Name,
		IsAdmin: u.IsAdmin,
	}
}
