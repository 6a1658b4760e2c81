package service

import (
	"context"
	"errors"
	"time"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	goatredis "github.com/goatmart/goatmart-backend/pkg/redis"
	"github.com/goatmart/goatmart-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthService interface {
	Register(email, password, name, phone, referralCode string) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Logout(ctx context.Context, token string) error
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, name, phone string) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	affiliateRepo repository.AffiliateRepository
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	affiliateRepo repository.AffiliateRepository,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		affiliateRepo: affiliateRepo,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// Register creates a user account. When a valid referral code is supplied the
// new user is attributed to the affiliate and a pending referral is recorded.
// Invalid codes are ignored so signup never fails over a stale link.
func (s *authService) Register(email, password, name, phone, referralCode string) (*model.User, *util.TokenPair, error) {
	logger.Info("Attempting user registration", map[string]interface{}{
		"email":         email,
		"name":          name,
		"referral_code": referralCode,
	})

	// Check if user already exists
	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	// Resolve referral attribution before creating the user
	var referrer *model.Affiliate
	if referralCode != "" {
		affiliate, err := s.affiliateRepo.FindByCode(referralCode)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Failed to resolve referral code", err, map[string]interface{}{
					"referral_code": referralCode,
				})
				return nil, nil, err
			}
			logger.Warn("Ignoring unknown referral code at registration", map[string]interface{}{
				"referral_code": referralCode,
			})
		} else if affiliate.IsActive {
			referrer = affiliate
		} else {
			logger.Warn("Ignoring inactive affiliate referral code", map[string]interface{}{
				"referral_code": referralCode,
				"affiliate_id":  affiliate.ID,
			})
		}
	}

	// Hash password
	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	// Create user
	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		Phone:        phone,
		Role:         model.RoleCustomer,
	}
	if referrer != nil {
		user.ReferredBy = &referrer.UserID
	}

	if err := s.userRepo.Create(user); err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if referrer != nil {
		referral := &model.AffiliateReferral{
			AffiliateID:    referrer.ID,
			ReferredUserID: user.ID,
			Status:         model.ReferralStatusPending,
		}
		if err := s.affiliateRepo.CreateReferral(referral); err != nil {
			// The account exists, so only log the failed attribution.
			logger.Error("Failed to record signup referral", err, map[string]interface{}{
				"user_id":      user.ID,
				"affiliate_id": referrer.ID,
			})
		} else {
			logger.Info("Signup referral recorded", map[string]interface{}{
				"user_id":      user.ID,
				"affiliate_id": referrer.ID,
				"referral_id":  referral.ID,
			})
		}
	}

	// Generate tokens
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
			"email":   email,
		})
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id":  user.ID,
		"email":    email,
		"role":     user.Role,
		"referred": referrer != nil,
	})

	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to fetch user for login", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
			"email":   email,
		})
		return nil, nil, err
	}

	logger.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
		"role":    user.Role,
	})

	return user, tokens, nil
}

// Logout blacklists the access token until its own expiry, so it cannot be
// replayed. A no-op when Redis is disabled.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		// Expired or malformed tokens need no blacklisting.
		logger.Debug("Logout with invalid token, nothing to revoke", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}

	if err := goatredis.BlacklistToken(ctx, token, remaining); err != nil {
		logger.Error("Failed to blacklist token", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	logger.Debug("Fetching user by ID", map[string]interface{}{
		"user_id": id,
	})

	user, err := s.userRepo.FindByIDWithAffiliate(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	return user, nil
}

func (s *authService) UpdateProfile(userID uint, name, phone string) (*model.User, error) {
	logger.Info("Updating user profile", map[string]interface{}{
		"user_id": userID,
	})

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Profile update failed: user not found", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user for profile update", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if phone != "" {
		user.Phone = phone
	}

	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("User profile updated successfully", map[string]interface{}{
		"user_id": userID,
	})
	return user, nil
}
