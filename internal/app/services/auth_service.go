package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/app/repositories"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/ozan/classpoint/internal/pkg/auth"
	"github.com/ozan/classpoint/internal/pkg/email"
	"github.com/ozan/classpoint/internal/pkg/otp"
	"github.com/rs/zerolog"
)

// AuthService handles registration, login and account lifecycle
type AuthService struct {
	userRepo     *repositories.UserRepository
	tokenRepo    *repositories.TokenRepository
	jwtService   *auth.JWTService
	otpStore     *otp.Store
	emailService email.EmailService
	logger       zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo *repositories.UserRepository,
	tokenRepo *repositories.TokenRepository,
	jwtService *auth.JWTService,
	otpStore *otp.Store,
	emailService email.EmailService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		jwtService:   jwtService,
		otpStore:     otpStore,
		emailService: emailService,
		logger:       logger,
	}
}

// Register creates a new account and sends a verification code to its email
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password during registration")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:     req.Email,
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleType:  models.RoleType(req.RoleType),
	}

	id, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	code, err := s.otpStore.Issue(ctx, otp.PurposeEmailVerify, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", user.Email).Msg("Failed to issue verification code")
		return nil, fmt.Errorf("failed to issue verification code: %w", err)
	}

	if err := s.emailService.SendVerificationEmail(user.Email, user.FullName(), code); err != nil {
		// Account exists; the user can request a new code later
		s.logger.Error().Err(err).Str("email", user.Email).Msg("Failed to send verification email")
	}

	s.logger.Info().Int64("userID", id).Str("email", user.Email).Msg("User registered")
	return user, nil
}

// Login checks credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login time")
	}

	return tokens, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair. The used
// token is revoked so each refresh token works exactly once.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, err := s.tokenRepo.GetTokenUser(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the presented refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenRepo.RevokeToken(ctx, refreshToken)
}

// VerifyEmail consumes a verification code and marks the account verified
func (s *AuthService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error {
	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	if user.EmailVerified {
		return apperrors.ErrEmailAlreadyVerified
	}

	if err := s.otpStore.Verify(ctx, otp.PurposeEmailVerify, req.Email, req.Code); err != nil {
		if errors.Is(err, otp.ErrCodeMismatch) {
			return apperrors.ErrInvalidEmailCode
		}
		return err
	}

	if err := s.userRepo.SetEmailVerified(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Email verified")
	return nil
}

// ResendVerification issues a fresh verification code for an unverified account
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	if user.EmailVerified {
		return apperrors.ErrEmailAlreadyVerified
	}

	code, err := s.otpStore.Issue(ctx, otp.PurposeEmailVerify, user.Email)
	if err != nil {
		return fmt.Errorf("failed to issue verification code: %w", err)
	}

	return s.emailService.SendVerificationEmail(user.Email, user.FullName(), code)
}

// ForgotPassword starts a password reset. Unknown emails return success so
// the endpoint cannot be used to probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Info().Str("email", emailAddr).Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	code, err := s.otpStore.Issue(ctx, otp.PurposePasswordReset, user.Email)
	if err != nil {
		return fmt.Errorf("failed to issue reset code: %w", err)
	}

	return s.emailService.SendPasswordResetEmail(user.Email, user.FullName(), code)
}

// ResetPassword consumes a reset code, replaces the password and revokes all
// outstanding refresh tokens of the account
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	if err := s.otpStore.Verify(ctx, otp.PurposePasswordReset, req.Email, req.Code); err != nil {
		if errors.Is(err, otp.ErrCodeMismatch) {
			return apperrors.ErrInvalidResetCode
		}
		return err
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}

	if err := s.tokenRepo.RevokeAllUserTokens(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to revoke tokens after password reset")
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Password reset completed")
	return nil
}

// GetProfile returns the account of the authenticated user
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// UpdateProfile changes the caller's name fields and returns the fresh record
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, req.FirstName, req.LastName); err != nil {
		return nil, err
	}
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to generate token pair")
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, refreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        expiresIn,
		RefreshExpiresIn: refreshExpiresIn,
	}, nil
}
