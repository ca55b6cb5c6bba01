package jwt

import (
	"errors"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidClaims = errors.New("token claims are missing or invalid")

// Claims is the identity carried by an access token. Authorization never
// trusts Role alone: the directory record is re-read per request.
type Claims struct {
	UserID       string
	Role         user.Role
	DepartmentID *string
}

type Service interface {
	GenerateAccessToken(userID string, role user.Role, departmentID *string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration) *JWTService {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                       time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(userID string, role user.Role, departmentID *string) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpirationTime).Unix()

	claims := map[string]interface{}{
		"user_id":       userID,
		"role":          string(role),
		"department_id": valueOrNil(departmentID),
		"type":          "access",
		"exp":           expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ClaimsFromMap reads the access-token claims produced by GenerateAccessToken.
func ClaimsFromMap(claims map[string]interface{}) (Claims, error) {
	if t, _ := claims["type"].(string); t != "access" {
		return Claims{}, ErrInvalidClaims
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, ErrInvalidClaims
	}

	roleStr, _ := claims["role"].(string)
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return Claims{}, ErrInvalidClaims
	}

	out := Claims{UserID: userID, Role: role}
	if dept, ok := claims["department_id"].(string); ok && dept != "" {
		out.DepartmentID = &dept
	}
	return out, nil
}

func valueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
