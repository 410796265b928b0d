package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

// Claims is the token payload: the registered claims plus the public part
// of the user profile.
type Claims struct {
	jwt.RegisteredClaims
	UserID           string                  `json:"_id"`
	Email            string                  `json:"email"`
	DisplayName      string                  `json:"display_name"`
	ProfileImageURLs models.ProfileImageURLs `json:"profile_image_urls"`
	Roles            []string                `json:"roles"`
}

func GenerateToken(u *models.User, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:           u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		ProfileImageURLs: u.ProfileImageURLs,
		Roles:            u.Roles,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies an HS256 token. Expired tokens yield
// common.ErrTokenExpired, any other failure common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
