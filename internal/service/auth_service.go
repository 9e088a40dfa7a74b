package service

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/sefazor/proparse-backend/internal/repository"
	"github.com/sefazor/proparse-backend/pkg/bcrypt"
	"github.com/sefazor/proparse-backend/pkg/email"
	jwtPkg "github.com/sefazor/proparse-backend/pkg/jwt"
)

const (
	// Token süreleri
	TokenExpiryReset = 15 * time.Minute
)

type AuthService struct {
	userRepo     *repository.UserRepository
	emailService *email.EmailService
	jwtSecret    []byte
}

func NewAuthService(userRepo *repository.UserRepository, emailService *email.EmailService) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		emailService: emailService,
		jwtSecret:    []byte(os.Getenv("JWT_SECRET")),
	}
}

func (s *AuthService) Register(req models.RegisterRequest) (*models.AuthResponse, error) {
	// Email kontrolü
	exists, err := s.userRepo.EmailExists(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New("email already exists")
	}

	// Şifreyi hashle
	hashedPassword, err := bcrypt.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	// Kullanıcıyı oluştur; yeni hesaplar 10 deneme kredisiyle başlar
	user := &models.User{
		FullName:           req.FullName,
		Email:              req.Email,
		Password:           hashedPassword,
		Role:               "user",
		Credits:            10,
		SubscriptionTier:   models.TierFree,
		SubscriptionStatus: models.SubscriptionActive,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	// JWT token oluştur
	token, err := jwtPkg.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	// Welcome email gönder
	go s.emailService.SendWelcomeEmail(user.Email, user.FullName)

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *AuthService) Login(req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.ComparePassword(user.Password, req.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, err := jwtPkg.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *AuthService) ForgotPassword(req models.ForgotPasswordRequest) error {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		// Hesabın varlığını sızdırma
		return nil
	}

	resetToken, err := s.generateResetToken(user.Email)
	if err != nil {
		return err
	}

	go s.emailService.SendPasswordResetEmail(user.Email, resetToken)

	return nil
}

func (s *AuthService) ResetPassword(req models.ResetPasswordRequest) error {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(req.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return errors.New("invalid or expired reset token")
	}

	purpose, _ := claims["purpose"].(string)
	if purpose != "password_reset" {
		return errors.New("invalid or expired reset token")
	}

	userEmail, ok := claims["email"].(string)
	if !ok {
		return errors.New("invalid or expired reset token")
	}

	user, err := s.userRepo.GetByEmail(userEmail)
	if err != nil {
		return errors.New("user not found")
	}

	hashedPassword, err := bcrypt.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(user.ID, hashedPassword)
}

func (s *AuthService) generateResetToken(email string) (string, error) {
	claims := jwt.MapClaims{
		"email":   email,
		"purpose": "password_reset",
		"exp":     time.Now().Add(TokenExpiryReset).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
