package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"krishak/internal/apperror"
	"krishak/internal/metrics"
	"krishak/internal/models"
	"krishak/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 30 * 24 * time.Hour

// invalidCredentialsMessage is shared by every login failure so responses do
// not reveal whether an email is registered.
const invalidCredentialsMessage = "Invalid email or password"

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Name         string          `json:"name" validate:"required,min=2,max=100"`
	Email        string          `json:"email" validate:"required,email,max=255"`
	Phone        string          `json:"phone" validate:"required,numeric,min=10,max=15"`
	Password     string          `json:"password" validate:"required,min=6,max=72"`
	UserType     models.UserType `json:"userType" validate:"required,oneof=buyer seller"`
	Address      models.Address  `json:"address"`
	AadharNumber string          `json:"aadharNumber" validate:"omitempty,numeric,len=12"`
}

// UpdateProfileInput carries the mutable profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	Name     *string         `json:"name" validate:"omitempty,min=2,max=100"`
	Phone    *string         `json:"phone" validate:"omitempty,numeric,min=10,max=15"`
	Address  *models.Address `json:"address"`
	Password *string         `json:"password" validate:"omitempty,min=6,max=72"`
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Claims are the JWT claims issued by AuthService. Subject holds the user id.
type Claims struct {
	UserType models.UserType `json:"user_type"`
	jwt.StandardClaims
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService. A non-positive ttl selects DefaultTokenTTL.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// Register validates and stores a new user and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = models.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.AadharNumber = strings.TrimSpace(in.AadharNumber)
	if in.UserType != models.Seller {
		// Only sellers keep an aadhar number, so a buyer's is neither checked nor stored.
		in.AadharNumber = ""
	}

	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.UserType == models.Seller && in.AadharNumber == "" {
		return nil, &apperror.Error{
			Kind:    apperror.Validation,
			Message: "Aadhar number is required for sellers",
			Fields:  map[string]string{"aadharNumber": "Aadhar number is required for sellers"},
		}
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.New(apperror.DuplicateEmail, "User with this email already exists")
	} else if !apperror.IsKind(err, apperror.NotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hashedPassword),
		UserType:     in.UserType,
		Address:      in.Address,
		AadharNumber: in.AadharNumber,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if apperror.IsKind(err, apperror.DuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	log.WithFields(log.Fields{"user_id": user.ID, "user_type": user.UserType}).Info("User registered")
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Login authenticates a user and returns a signed token if successful.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if !apperror.IsKind(err, apperror.NotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, apperror.New(apperror.InvalidCredentials, invalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, apperror.New(apperror.InvalidCredentials, invalidCredentialsMessage)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// ValidateToken parses and validates a token, returning its claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.Unauthorized, "Invalid or expired token", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperror.New(apperror.Unauthorized, "Invalid or expired token")
	}
	return claims, nil
}

// Profile returns the public view of a user.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// UpdateProfile changes the mutable fields of a user. Email and account type
// are fixed at registration.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.PublicUser, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Address != nil {
		if err := validateStruct(*in.Address); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	if in.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// ListUsers returns the public view of every user.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// RequireRole fails with Forbidden unless actual matches required.
func RequireRole(actual, required models.UserType) error {
	if actual != required {
		return apperror.Newf(apperror.Forbidden, "Not authorized as a %s", required)
	}
	return nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserType: user.UserType,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return s.dummyHash
}
