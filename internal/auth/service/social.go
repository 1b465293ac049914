package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/kakao"
	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/jwtx"
	"github.com/silverbridge/backend/pkg/slogx"
)

// KakaoProfileFetcher resolves a Kakao access token to the profile it was
// issued for. *kakao.Client is the production implementation.
type KakaoProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (kakao.Profile, error)
}

// SocialLoginResult is either a token pair for a linked account or a temp
// token for a Kakao user who still has to register.
type SocialLoginResult struct {
	Registered bool
	Pair       domain.TokenPair

	TempToken     string
	TempExpiresAt time.Time
	Nickname      string
}

// FinalRegisterParams is the profile a Kakao user submits to finish
// registration. There is no password; the account signs in through Kakao.
type FinalRegisterParams struct {
	Name        string
	PhoneNumber string
	Birth       string // YYYY-MM-DD, optional
	Region      string
	Role        string // MEMBER or NOK
}

type SocialAuthService struct {
	Store     store.Store
	Kakao     KakaoProfileFetcher
	Issuer    *TokenIssuer
	Validator *TokenValidator
	Registry  revocation.Registry

	// RequireVerification makes a brand-new social account consume a
	// verified phone number, as password join does. Linking an existing
	// account always requires one.
	RequireVerification bool

	// RevokeTimeout bounds the temp token revoke. Defaults to DefaultRegistryTimeout.
	RevokeTimeout time.Duration

	Now func() time.Time
}

func (s *SocialAuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// LoginOrJoin signs in the account linked to the Kakao user behind
// kakaoToken, or hands back a temp token when there is none.
func (s *SocialAuthService) LoginOrJoin(ctx context.Context, kakaoToken string) (SocialLoginResult, error) {
	kakaoToken = strings.TrimSpace(kakaoToken)
	if kakaoToken == "" {
		return SocialLoginResult{}, fmt.Errorf("%w: kakao access token is required", ErrInvalidRequest)
	}

	prof, err := s.Kakao.FetchProfile(ctx, kakaoToken)
	switch {
	case errors.Is(err, kakao.ErrTokenRejected):
		return SocialLoginResult{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	case err != nil:
		return SocialLoginResult{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	l := slogx.FromContext(ctx).With(slog.Int64("kakao_id", prof.ID))

	user, err := s.Store.Users().GetUserByKakaoID(ctx, prof.ID)
	if err == nil {
		pair, err := s.Issuer.IssuePair(user.Principal())
		if err != nil {
			return SocialLoginResult{}, err
		}
		l.Info("social login", slog.String("user_id", user.ID))
		return SocialLoginResult{Registered: true, Pair: pair, Nickname: prof.Nickname()}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return SocialLoginResult{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	token, claims, err := s.Issuer.IssueTempToken(prof.ID, prof.Nickname())
	if err != nil {
		return SocialLoginResult{}, err
	}
	l.Info("social login needs registration", slog.String("jti", claims.ID))
	return SocialLoginResult{
		TempToken:     token,
		TempExpiresAt: claims.ExpiresAtTime(),
		Nickname:      claims.Nickname,
	}, nil
}

// CompleteRegistration spends tempToken on creating or linking the account
// for its Kakao user and returns a token pair for it. A temp token is good
// for one call; replays fail with ErrRevoked.
func (s *SocialAuthService) CompleteRegistration(ctx context.Context, tempToken string, p FinalRegisterParams) (domain.User, domain.TokenPair, error) {
	claims, err := s.Validator.Validate(ctx, tempToken, jwtx.TokenTypeTemp)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	kakaoID, err := domain.ParseKakaoSubject(claims.Subject)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	prof, err := parseProfile(p.Name, p.PhoneNumber, p.Birth, p.Region, p.Role)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	now := s.now()
	won, err := revokeToken(ctx, s.Registry, s.RevokeTimeout, domain.RevocationEntry{
		JTI:       claims.ID,
		Subject:   claims.Subject,
		Reason:    domain.ReasonConsumed,
		RevokedAt: now,
		ExpiresAt: s.Validator.RetainUntil(claims),
	})
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	if !won {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("%w: temp token %s already used", ErrRevoked, claims.ID)
	}

	var (
		user   domain.User
		linked bool
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().GetUserByKakaoID(ctx, kakaoID)
		switch {
		case err == nil:
			return ErrKakaoLinked
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		existing, err := tx.Users().GetUserByPhoneNumber(ctx, prof.phone)
		switch {
		case err == nil:
			if existing.KakaoID != nil {
				return ErrKakaoLinked
			}
			if err := consumeVerification(ctx, tx, prof.phone, now); err != nil {
				return err
			}
			user = link(existing, prof, kakaoID, now)
			linked = true
			return mapKakaoConflict(tx.Users().UpdateUser(ctx, user))

		case errors.Is(err, store.ErrNotFound):
			if s.RequireVerification {
				if err := consumeVerification(ctx, tx, prof.phone, now); err != nil {
					return err
				}
			}
			hash, err := unusablePasswordHash()
			if err != nil {
				return err
			}
			user = prof.newUser(hash, now)
			user.KakaoID = &kakaoID
			user.Social = true
			err = tx.Users().CreateUser(ctx, user)
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrPhoneTaken
			}
			return err

		default:
			return err
		}
	})
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.Issuer.IssuePair(user.Principal())
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	msg := "social account created"
	if linked {
		msg = "kakao account linked"
	}
	slogx.FromContext(ctx).Info(msg,
		slog.String("user_id", user.ID),
		slog.Int64("kakao_id", kakaoID),
		slog.String("role", string(user.Role)),
	)
	return user, pair, nil
}

// link attaches kakaoID to u and refreshes its profile. The role chosen at
// join time is kept.
func link(u domain.User, p profile, kakaoID int64, now time.Time) domain.User {
	u.Name = p.name
	if p.birth != nil {
		u.Birth = p.birth
	}
	if p.region != "" {
		u.Region = p.region
	}
	u.KakaoID = &kakaoID
	u.Social = true
	u.UpdatedAt = now
	return u
}

func mapKakaoConflict(err error) error {
	if errors.Is(err, store.ErrAlreadyExists) {
		return ErrKakaoLinked
	}
	return err
}

// unusablePasswordHash hashes a random secret nobody holds, so password
// login never succeeds for a Kakao-only account.
func unusablePasswordHash() (string, error) {
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	return cryptox.HashPassword(secret)
}
