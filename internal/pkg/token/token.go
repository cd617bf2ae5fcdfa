package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer 负责签发与校验 Bearer 令牌。
//
// 令牌为 HS256 签名的 JWT，载荷最少包含 sub（用户 ID）与 exp（过期时间）。
// 校验失败不区分原因（签名错误 / 过期 / 格式损坏），调用方一律按无效处理，
// 避免向客户端泄露可探测的信息。
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer 创建令牌签发器。
//
// 参数:
//
//	secret: 服务端持有的签名密钥
//	ttl: 令牌有效期
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue 为指定用户签发一个新令牌。
func (i *Issuer) Issue(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Verify 校验令牌并返回其中的用户 ID。
//
// 返回值:
//
//	uint: 令牌主体对应的用户 ID
//	bool: 令牌是否有效
func (i *Issuer) Verify(tokenStr string) (uint, bool) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return 0, false
	}
	if claims.Subject == "" {
		return 0, false
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(uid), true
}
