package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	StaffID string `json:"staff_id"`
	HotelID string `json:"hotel_id"`
	Email   string `json:"email"`
}

func GenerateToken(staff Staff, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		StaffID: staff.ID.String(),
		HotelID: staff.HotelID.String(),
		Email:   staff.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Staff, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("ValidateToken: invalid token claims")
	}

	staffID, err := uuid.Parse(tc.StaffID)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: invalid staff_id in token: %w", err)
	}
	hotelID, err := uuid.Parse(tc.HotelID)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: invalid hotel_id in token: %w", err)
	}

	return &Staff{
		ID:      staffID,
		HotelID: hotelID,
		Email:   tc.Email,
	}, nil
}
