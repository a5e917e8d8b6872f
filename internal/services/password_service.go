package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

const minPasswordStrength = 2

// Passwords found on leaked-credentials lists score zero regardless of
// their composition.
var commonPasswords = map[string]bool{
	"password":    true,
	"password1":   true,
	"password123": true,
	"12345678":    true,
	"123456789":   true,
	"qwerty123":   true,
	"letmein":     true,
	"iloveyou":    true,
	"admin123":    true,
	"welcome1":    true,
}

// PasswordService handles password changes, strength scoring, and the reset
// token lifecycle. Reset tokens are signed JWTs; only the SHA-256 digest of
// the token is stored, so a database leak exposes nothing usable.
type PasswordService struct {
	storage     *storage.Repository
	secret      []byte
	tokenTTL    time.Duration
	historySize int
}

func NewPasswordService(storage *storage.Repository, secret []byte, tokenTTL time.Duration, historySize int) *PasswordService {
	return &PasswordService{
		storage:     storage,
		secret:      secret,
		tokenTTL:    tokenTTL,
		historySize: historySize,
	}
}

// HashPassword produces a bcrypt hash with the default cost.
func (s *PasswordService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash.
func (s *PasswordService) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Strength scores a password from 0 to 4: length of 8 earns a point, length
// of 12 another, then one each for mixed case, digits, and symbols (capped at
// 4). Known common passwords always score 0.
func Strength(password string) (int, string) {
	labels := []string{"very weak", "weak", "fair", "good", "strong"}

	if commonPasswords[strings.ToLower(password)] {
		return 0, labels[0]
	}

	score := 0
	if len(password) >= 8 {
		score++
	}
	if len(password) >= 12 {
		score++
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if hasUpper && hasLower {
		score++
	}
	if hasDigit {
		score++
	}
	if hasSymbol {
		score++
	}
	if score > 4 {
		score = 4
	}
	return score, labels[score]
}

// ChangePassword rotates the password after verifying the current one. The
// new password must score at least fair and must not repeat any of the
// recently used ones.
func (s *PasswordService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.VerifyPassword(user.PasswordHash, current) {
		return core.Securityf("current password does not match")
	}
	if err := s.applyNewPassword(ctx, user, next); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Password changed", "user_id", userID)
	return nil
}

func (s *PasswordService) applyNewPassword(ctx context.Context, user core.User, next string) error {
	score, label := Strength(next)
	if score < minPasswordStrength {
		return core.Validationf("password too weak (%s); use at least 8 characters mixing case, digits, or symbols", label)
	}

	// The live hash plus the stored history covers the last historySize+1
	// passwords.
	if s.VerifyPassword(user.PasswordHash, next) {
		return core.Validationf("new password must differ from the current one")
	}
	history, err := s.storage.ListPasswordHistory(ctx, user.ID, s.historySize)
	if err != nil {
		return fmt.Errorf("list password history: %w", err)
	}
	for _, oldHash := range history {
		if s.VerifyPassword(oldHash, next) {
			return core.Validationf("new password was used recently; choose a different one")
		}
	}

	hash, err := s.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.storage.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.storage.TrimPasswordHistory(ctx, user.ID, s.historySize); err != nil {
		return fmt.Errorf("trim password history: %w", err)
	}
	return nil
}

type resetClaims struct {
	jwt.RegisteredClaims
}

// IssueResetToken creates a single-use password reset token for the user
// behind the email. The returned JWT goes to the user; only its digest is
// persisted.
func (s *PasswordService) IssueResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}

	if err := s.storage.CreateResetToken(ctx, digestToken(token), user.ID, now.Add(s.tokenTTL)); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Reset token issued", "user_id", user.ID, "ttl", s.tokenTTL)
	return token, nil
}

// ResetPassword validates the token signature and claims, consumes the
// stored digest (single use), and applies the new password through the same
// strength and history checks as a normal change.
func (s *PasswordService) ResetPassword(ctx context.Context, token, next string) error {
	var claims resetClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return core.Securityf("reset token invalid")
	}

	userID, err := s.storage.ConsumeResetToken(ctx, digestToken(token), time.Now().UTC())
	if err != nil {
		return err
	}
	if userID != claims.Subject {
		return core.Securityf("reset token subject mismatch")
	}

	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.applyNewPassword(ctx, user, next); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Password reset", "user_id", userID)
	return nil
}

func digestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
