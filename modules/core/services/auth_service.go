package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/pkg/configuration"
	"github.com/iota-uz/pims/pkg/serrors"
)

var (
	ErrInvalidCredentials = serrors.NewError("AUTH_INVALID_CREDENTIALS", "invalid credentials")
	ErrRoleGrantForbidden = serrors.NewError("AUTH_ROLE_GRANT_FORBIDDEN", "only a master admin can assign elevated roles")
	ErrInvalidToken       = serrors.NewError("AUTH_INVALID_TOKEN", "invalid or expired token")
)

type tokenClaims struct {
	UserID uint   `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	repo user.Repository
}

func NewAuthService(repo user.Repository) *AuthService {
	return &AuthService{repo: repo}
}

// SignUp registers a new user. A nil actor is anonymous self-registration,
// which may only produce staff accounts; elevated roles require a master
// admin actor. Department uniqueness for custodians is enforced by the
// store and surfaces as ErrDepartmentHeld from the repository.
func (s *AuthService) SignUp(
	ctx context.Context,
	actor user.User,
	name, email, password string,
	role user.Role,
	department string,
) (user.User, error) {
	if role == "" {
		role = user.RoleStaff
	}
	if !role.IsValid() {
		return nil, ErrRoleGrantForbidden.WithMessage("unknown role %q", role)
	}
	if role != user.RoleStaff {
		if actor == nil || !actor.Role().CanGrant(role) {
			return nil, ErrRoleGrantForbidden
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), configuration.Use().Auth.BcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	entity := user.New(name, email, role, department).WithPasswordHash(string(hash))
	return s.repo.Create(ctx, entity)
}

// SignIn verifies credentials and issues a signed token for the user.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (user.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if !u.CheckPassword(password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// UserFromToken validates a bearer token and loads the user it names.
func (s *AuthService) UserFromToken(ctx context.Context, tokenString string) (user.User, error) {
	conf := configuration.Use()
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(conf.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return s.repo.GetByID(ctx, claims.UserID)
}

func (s *AuthService) issueToken(u user.User) (string, error) {
	conf := configuration.Use()
	now := time.Now()
	claims := &tokenClaims{
		UserID: u.ID(),
		Role:   string(u.Role()),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Auth.Tokenexpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(conf.Auth.JWTSecret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}
