package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "jobboard:ratelimit:"

// 令牌桶。原子地补充并尝试扣减一个令牌，返回 {allowed}。
const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

if rate <= 0 or burst <= 0 then
  return 1
end

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

local delta = math.max(0, now - ts)
tokens = math.min(burst, tokens + (delta * rate) / 1000.0)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return allowed
`

// Limiter 基于 Redis 的按 key 限流器（令牌桶）。
//
// 登录 / 注册按客户端 IP 限流；令牌不足时请求直接拒绝，不排队等待。
type Limiter struct {
	rdb    *redis.Client
	rate   float64 // 每秒补充的令牌数
	burst  float64 // 桶容量
	script *redis.Script
	nowMs  func() int64
}

// NewLimiter 创建限流器。rate 或 burst <= 0 时限流关闭（全部放行）。
func NewLimiter(rdb *redis.Client, rate, burst float64) *Limiter {
	return &Limiter{
		rdb:    rdb,
		rate:   rate,
		burst:  burst,
		script: redis.NewScript(tokenBucketLua),
	}
}

// Allow 尝试为 key 取一个令牌。
//
// 返回值:
//
//	bool: 是否放行
//	error: Redis 访问失败（调用方应放行并记录，不因限流器故障拒绝请求）
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil || l.rate <= 0 || l.burst <= 0 {
		return true, nil
	}

	now := l.now()
	res, err := l.script.Run(ctx, l.rdb, []string{keyPrefix + key}, l.rate, l.burst, now).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit eval: %w", err)
	}
	return toInt64(res) == 1, nil
}

func (l *Limiter) now() int64 {
	if l.nowMs != nil {
		return l.nowMs()
	}
	return time.Now().UnixMilli()
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if parsed, err := strconv.ParseInt(t, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
