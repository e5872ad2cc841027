package util

import (
	"errors"
	"novus-backend/config"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenClaims 是从访问令牌中解析出的信息
type TokenClaims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func GenerateToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenLifetime()).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func ValidateToken(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("意外的签名算法")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			return nil, errors.New("无效的用户ID")
		}
		result := &TokenClaims{UserID: userID}
		if iat, ok := claims["iat"].(float64); ok {
			result.IssuedAt = time.Unix(int64(iat), 0)
		}
		if exp, ok := claims["exp"].(float64); ok {
			result.ExpiresAt = time.Unix(int64(exp), 0)
		}
		return result, nil
	}

	return nil, errors.New("无效的令牌")
}

func tokenLifetime() time.Duration {
	if config.AppConfig.JWTExpiresIn > 0 {
		return config.AppConfig.JWTExpiresIn
	}
	return 24 * time.Hour
}
