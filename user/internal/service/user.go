package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alturino/dashboard/internal/auth"
	"github.com/Alturino/dashboard/internal/constants"
	"github.com/Alturino/dashboard/internal/log"
	commonOtel "github.com/Alturino/dashboard/internal/otel"
	"github.com/Alturino/dashboard/internal/validate"
	inErrors "github.com/Alturino/dashboard/user/internal/errors"
	inOtel "github.com/Alturino/dashboard/user/internal/otel"
	"github.com/Alturino/dashboard/user/internal/repository"
	"github.com/Alturino/dashboard/user/internal/session"
)

const minPasswordLength = 6

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserService is the authentication provider backing the dashboard. Sessions
// are HS256 tokens; signing out records the token id in the revocation store.
type UserService struct {
	repository repository.Repository
	revocation session.RevocationStore
	secretKey  []byte
	sessionTTL time.Duration
	now        func() time.Time
}

func NewUserService(
	repository repository.Repository,
	revocation session.RevocationStore,
	secretKey string,
	sessionTTL time.Duration,
) *UserService {
	return &UserService{
		repository: repository,
		revocation: revocation,
		secretKey:  []byte(secretKey),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (u *UserService) SignUp(c context.Context, email, password string) error {
	c, span := inOtel.Tracer.Start(c, "UserService SignUp")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	logger := zerolog.Ctx(c).With().
		Ctx(c).
		Str(log.KeyTag, "UserService SignUp").
		Str(log.KeyEmail, email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating credentials").Logger()
	logger.Trace().Msg("validating credentials")
	if err := validate.Get().Var(email, "required,email"); err != nil || len(password) < minPasswordLength {
		logger.Error().Err(inErrors.ErrInvalidSignUp).Msg(inErrors.ErrInvalidSignUp.Error())
		return inErrors.ErrInvalidSignUp
	}
	logger.Trace().Msg("validated credentials")

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	logger.Trace().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("hashed password")

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Trace().Msg("inserting user")
	user, err := u.repository.InsertUser(c, repository.InsertUserParams{
		ID:       uuid.New(),
		Email:    email,
		Password: string(hashed),
	})
	if errors.Is(err, inErrors.ErrDuplicateEmail) {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return inErrors.ErrEmailAlreadyUsed
	}
	if err != nil {
		err = fmt.Errorf("failed inserting user with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Str(log.KeyUserID, user.ID.String()).Msg("inserted user")

	return nil
}

func (u *UserService) SignIn(c context.Context, email, password string) (string, auth.Session, error) {
	c, span := inOtel.Tracer.Start(c, "UserService SignIn")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	logger := zerolog.Ctx(c).With().
		Ctx(c).
		Str(log.KeyTag, "UserService SignIn").
		Str(log.KeyEmail, email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Trace().Msg("finding user by email")
	user, err := u.repository.FindByEmail(c, email)
	if errors.Is(err, inErrors.ErrUserNotFound) {
		logger.Error().Err(err).Msg(err.Error())
		return "", auth.Session{}, inErrors.ErrInvalidCredentials
	}
	if err != nil {
		err = fmt.Errorf("failed finding user with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", auth.Session{}, err
	}
	logger.Trace().Msg("found user by email")

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	logger.Trace().Msg("verifying password")
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logger.Error().Err(err).Msg("password mismatch")
		return "", auth.Session{}, inErrors.ErrInvalidCredentials
	}
	logger.Trace().Msg("verified password")

	logger = logger.With().Str(log.KeyProcess, "signing token").Logger()
	logger.Trace().Msg("signing token")
	issuedAt := u.now().UTC().Truncate(time.Second)
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			Issuer:    constants.AppUserService,
			Audience:  jwt.ClaimStrings{constants.AudienceDashboard},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(u.sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secretKey)
	if err != nil {
		err = fmt.Errorf("failed signing token with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", auth.Session{}, err
	}
	logger.Info().Str(log.KeySessionID, claims.ID).Msg("signed token")

	return token, toSession(claims), nil
}

func (u *UserService) SignOut(c context.Context, token string) error {
	c, span := inOtel.Tracer.Start(c, "UserService SignOut")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Ctx(c).
		Str(log.KeyTag, "UserService SignOut").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing token").Logger()
	logger.Trace().Msg("parsing token")
	claims, err := u.parse(token)
	if err != nil {
		logger.Info().Err(err).Msg("token already unusable")
		return nil
	}
	logger = logger.With().Str(log.KeySessionID, claims.ID).Logger()
	logger.Trace().Msg("parsed token")

	logger = logger.With().Str(log.KeyProcess, "revoking session").Logger()
	logger.Trace().Msg("revoking session")
	if err := u.revocation.Revoke(c, claims.ID, claims.ExpiresAt.Sub(u.now())); err != nil {
		err = fmt.Errorf("failed revoking session with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("revoked session")

	return nil
}

func (u *UserService) Session(c context.Context, token string) (auth.Session, error) {
	c, span := inOtel.Tracer.Start(c, "UserService Session")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Ctx(c).
		Str(log.KeyTag, "UserService Session").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing token").Logger()
	logger.Trace().Msg("parsing token")
	claims, err := u.parse(token)
	if err != nil {
		logger.Debug().Err(err).Msg(err.Error())
		return auth.Session{}, err
	}
	logger = logger.With().Str(log.KeySessionID, claims.ID).Logger()
	logger.Trace().Msg("parsed token")

	logger = logger.With().Str(log.KeyProcess, "checking revocation").Logger()
	logger.Trace().Msg("checking revocation")
	revoked, err := u.revocation.IsRevoked(c, claims.ID)
	if err != nil {
		err = fmt.Errorf("failed checking revocation with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return auth.Session{}, err
	}
	if revoked {
		logger.Debug().Msg(inErrors.ErrSessionRevoked.Error())
		return auth.Session{}, inErrors.ErrSessionRevoked
	}
	logger.Trace().Msg("checked revocation")

	return toSession(claims), nil
}

func (u *UserService) parse(token string) (Claims, error) {
	claims := Claims{}
	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (interface{}, error) { return u.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(constants.AudienceDashboard),
		jwt.WithIssuer(constants.AppUserService),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", inErrors.ErrTokenInvalid, err)
	}
	if claims.ID == "" {
		return Claims{}, inErrors.ErrTokenInvalid
	}
	return claims, nil
}

func toSession(claims Claims) auth.Session {
	userID, _ := uuid.Parse(claims.Subject)
	s := auth.Session{ID: claims.ID, UserID: userID, Email: claims.Email}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return s
}
