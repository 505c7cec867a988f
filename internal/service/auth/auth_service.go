// internal/service/auth/auth_service.go
package auth

import (
	"context"
	"fmt"
	"strings"

	"billing-service/internal/domain/admin"
	"billing-service/internal/pkg/clock"
	xerrors "billing-service/internal/pkg/errors"
	"billing-service/internal/pkg/jwt"
	"billing-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionNotifier is told when a session ends so live connections using it
// can be closed.
type SessionNotifier interface {
	ForceLogout(operatorID int64, jti, reason string)
}

type AuthService struct {
	adminRepo      admin.Repository
	jwtManager     *jwt.Manager
	sessionManager *session.Manager
	rateLimiter    *session.RateLimiter
	notifier       SessionNotifier
	clock          clock.Clock
	logger         *zap.Logger
}

func NewAuthService(
	adminRepo admin.Repository,
	jwtManager *jwt.Manager,
	sessionManager *session.Manager,
	rateLimiter *session.RateLimiter,
	clk clock.Clock,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		adminRepo:      adminRepo,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		clock:          clk,
		logger:         logger,
	}
}

func (s *AuthService) SetNotifier(n SessionNotifier) {
	s.notifier = n
}

// Login authenticates an operator and opens a session
func (s *AuthService) Login(ctx context.Context, req *admin.LoginRequest) (*admin.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Rate limiting
	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, email)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, xerrors.New(xerrors.ErrRateLimited, "too many login attempts, please try again in 15 minutes")
	}

	a, err := s.adminRepo.FindByEmail(ctx, email)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.New(xerrors.ErrUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", req.IPAddress),
			zap.Int64("attempts_remaining", remaining),
		)
		return nil, xerrors.New(xerrors.ErrUnauthorized, "invalid credentials")
	}

	if !a.IsActive {
		return nil, xerrors.New(xerrors.ErrForbidden, "account is inactive")
	}

	roles := []string{string(a.Role)}
	token, jti, expiresAt, err := s.jwtManager.Generator.GenerateAccessToken(a.ID, a.Email, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.clock.Now()
	if err := s.sessionManager.CreateSession(ctx, &session.SessionData{
		JTI:            jti,
		OperatorID:     a.ID,
		Email:          a.Email,
		Roles:          roles,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.adminRepo.UpdateLastLogin(ctx, a.ID); err != nil {
		s.logger.Error("failed to update last login", zap.Error(err))
	}
	if err := s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	s.logger.Info("operator logged in",
		zap.Int64("admin_id", a.ID),
		zap.String("role", string(a.Role)),
		zap.String("ip", req.IPAddress),
	)

	return &admin.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		Admin:     a.Info(),
	}, nil
}

// Logout ends the session and revokes its token until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	remaining := claims.Remaining(s.clock.Now())
	if err := s.sessionManager.InvalidateSession(ctx, claims.OperatorID, claims.ID, remaining); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ForceLogout(claims.OperatorID, claims.ID, "logged out")
	}

	s.logger.Info("operator logged out", zap.Int64("admin_id", claims.OperatorID))
	return nil
}

// ValidateToken verifies the signature, the blacklist and the live session
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, xerrors.New(xerrors.ErrUnauthorized, "invalid token")
	}

	blacklisted, err := s.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, xerrors.New(xerrors.ErrTokenRevoked, "token has been revoked")
	}

	if _, err := s.sessionManager.GetSession(ctx, claims.OperatorID, claims.ID); err != nil {
		if xerrors.Is(err, xerrors.ErrUnauthorized) {
			return nil, xerrors.New(xerrors.ErrUnauthorized, "session not found or expired")
		}
		return nil, err
	}

	return claims, nil
}

// Me returns the operator behind the token
func (s *AuthService) Me(ctx context.Context, operatorID int64) (*admin.AdminInfo, error) {
	a, err := s.adminRepo.FindByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	info := a.Info()
	return &info, nil
}

// EnsureBootstrapAdmin creates the first admin when none exists (called on startup)
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, email, password, fullName string) error {
	count, err := s.adminRepo.CountByRole(ctx, admin.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if count > 0 {
		s.logger.Info("admin already exists, skipping bootstrap")
		return nil
	}

	if email == "" || password == "" {
		s.logger.Warn("no admin account and no bootstrap credentials configured")
		return nil
	}
	if fullName == "" {
		fullName = "Administrator"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	a := &admin.Admin{
		FullName:     fullName,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hashed),
		Role:         admin.RoleAdmin,
		IsActive:     true,
	}
	if err := s.adminRepo.Create(ctx, a); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.String("email", a.Email), zap.Int64("admin_id", a.ID))
	return nil
}
