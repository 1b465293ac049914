package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/idx"
	"github.com/silverbridge/backend/pkg/slogx"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 20
	birthLayout    = "2006-01-02"
)

var phonePattern = regexp.MustCompile(`^010-\d{4}-\d{4}$`)

// ValidatePhoneNumber accepts mobile numbers written as 010-XXXX-XXXX.
func ValidatePhoneNumber(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: phone number must look like 010-XXXX-XXXX", ErrInvalidRequest)
	}
	return nil
}

// ValidatePassword requires 8 to 20 characters with at least one letter
// and one digit.
func ValidatePassword(pw string) error {
	n := len([]rune(pw))
	if n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("%w: password must be %d to %d characters", ErrInvalidRequest, minPasswordLen, maxPasswordLen)
	}

	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return fmt.Errorf("%w: password must contain letters and digits", ErrInvalidRequest)
	}
	return nil
}

// JoinParams is a join request as submitted.
type JoinParams struct {
	Name        string
	PhoneNumber string
	Password    string
	Birth       string // YYYY-MM-DD, optional
	Region      string
	Role        string // MEMBER or NOK
}

type UserService struct {
	Store store.Store

	// RequireVerification makes join consume a verified phone verification.
	RequireVerification bool

	Now func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register validates p and creates the account. With RequireVerification
// set, the phone number must have been verified through the SMS flow; that
// verification is consumed in the same transaction as the insert.
func (s *UserService) Register(ctx context.Context, p JoinParams) (domain.User, error) {
	prof, err := parseProfile(p.Name, p.PhoneNumber, p.Birth, p.Region, p.Role)
	if err != nil {
		return domain.User{}, err
	}
	if err := ValidatePassword(p.Password); err != nil {
		return domain.User{}, err
	}

	exists, err := s.Store.Users().ExistsByPhoneNumber(ctx, prof.phone)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, ErrPhoneTaken
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	user := prof.newUser(hash, now)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if s.RequireVerification {
			if err := consumeVerification(ctx, tx, user.PhoneNumber, now); err != nil {
				return err
			}
		}

		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrPhoneTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("account created",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// profile is the validated, password-free part of a join request.
type profile struct {
	name   string
	phone  string
	region string
	birth  *time.Time
	role   domain.Role
}

func parseProfile(name, phone, birth, region, role string) (profile, error) {
	p := profile{
		name:   strings.TrimSpace(name),
		phone:  strings.TrimSpace(phone),
		region: strings.TrimSpace(region),
	}

	if p.name == "" {
		return profile{}, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if err := ValidatePhoneNumber(p.phone); err != nil {
		return profile{}, err
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return profile{}, fmt.Errorf("%w: role must be MEMBER or NOK", ErrInvalidRequest)
	}
	p.role = r

	if birth != "" {
		t, err := time.Parse(birthLayout, birth)
		if err != nil {
			return profile{}, fmt.Errorf("%w: birth must be YYYY-MM-DD", ErrInvalidRequest)
		}
		p.birth = &t
	}
	return p, nil
}

func (p profile) newUser(passwordHash string, now time.Time) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Name:         p.name,
		PhoneNumber:  p.phone,
		PasswordHash: passwordHash,
		Role:         p.role,
		Birth:        p.birth,
		Region:       p.region,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// consumeVerification deletes the verified record for phone, or fails with
// ErrPhoneNotVerified when there is none.
func consumeVerification(ctx context.Context, tx store.Tx, phone string, now time.Time) error {
	v, err := tx.PhoneVerifications().GetPhoneVerification(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPhoneNotVerified
	}
	if err != nil {
		return err
	}
	if !v.Verified(now) {
		return ErrPhoneNotVerified
	}
	return tx.PhoneVerifications().DeletePhoneVerification(ctx, phone)
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}
