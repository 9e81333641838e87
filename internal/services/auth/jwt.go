package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

type JWTService struct {
	secretKey []byte
	redis     *redis.Client
}

func NewJWTService(secretKey string, redisClient *redis.Client) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		redis:     redisClient,
	}
}

// GenerateToken issues an access/refresh token pair. The refresh token is an
// opaque value stored in Redis under refresh:<token> for its whole lifetime.
func (s *JWTService) GenerateToken(userID int, username, role string) (string, string, error) {
	claims := jwt.MapClaims{
		"user_id":  strconv.Itoa(userID),
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(accessTokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %v", err)
	}

	refreshToken := uuid.NewString()
	ctx := context.Background()
	err = s.redis.Set(ctx, refreshKey(refreshToken), userID, refreshTokenTTL).Err()
	if err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %v", err)
	}

	return accessToken, refreshToken, nil
}

// ValidateRefreshToken returns the user ID the refresh token belongs to.
func (s *JWTService) ValidateRefreshToken(refreshToken string) (int, error) {
	ctx := context.Background()
	val, err := s.redis.Get(ctx, refreshKey(refreshToken)).Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("refresh token not found or expired")
	} else if err != nil {
		return 0, err
	}

	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt refresh token entry: %v", err)
	}
	return userID, nil
}

// RevokeRefreshToken drops the token; used on logout and rotation.
func (s *JWTService) RevokeRefreshToken(refreshToken string) error {
	ctx := context.Background()
	return s.redis.Del(ctx, refreshKey(refreshToken)).Err()
}

func refreshKey(token string) string {
	return "refresh:" + token
}
