package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName はセッションCookieの名前。
const CookieName = "sharegate_session"

// sessionClaims はセッションCookie（JWT）のクレーム。
// IDクレーム（jti）がセッション行の主キーを指す。
type sessionClaims struct {
	jwt.RegisteredClaims
	// Name はログインユーザーの表示名。
	Name string `json:"name"`
}

// signSessionToken はセッション行に対応するJWTを生成する。
func signSessionToken(secret, sessionID, name string, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "sharegate",
		},
		Name: name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("セッショントークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// parseSessionToken はセッションCookieの値を検証してクレームを返す。
// 署名不正・期限切れの場合はエラーを返す。
func parseSessionToken(secret, tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("セッショントークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("セッショントークンが無効です")
	}
	return claims, nil
}
