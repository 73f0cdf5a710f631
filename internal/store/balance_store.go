package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go-parking-payment/internal/kvstore"
	"go-parking-payment/internal/pricing"
	"go-parking-payment/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BalanceStore 錢包餘額的持久化端口。餘額以十進位字串存放(例如 "8.5")，
// key 不存在代表餘額 0。
type BalanceStore interface {
	GetBalance(ctx context.Context, userID int) (float64, error)
	SetBalance(ctx context.Context, userID int, balance float64) error
	// Debit 原子性的「檢查並扣款」：餘額不足時回傳 ok=false 且不動任何狀態
	Debit(ctx context.Context, userID int, cost float64) (newBalance float64, ok bool, err error)
}

func balanceKey(userID int) string {
	return fmt.Sprintf("user:%d:balance", userID)
}

func formatBalance(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseBalance(raw string, userID int) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// 壞檔視為 0，只留警告
		logger.WithComponent("balance_store").Warn("failed to parse stored balance",
			zap.Int("user_id", userID), zap.String("raw", raw), zap.Error(err))
		return 0
	}
	return v
}

// KVBalanceStore 走通用 kv 端口的實作；Debit 以本地鎖保證單機原子性。
// 測試時配合記憶體 kv 使用。
type KVBalanceStore struct {
	kv kvstore.Store
	mu sync.Mutex
}

func NewKVBalanceStore(kv kvstore.Store) BalanceStore {
	return &KVBalanceStore{kv: kv}
}

func (s *KVBalanceStore) GetBalance(ctx context.Context, userID int) (float64, error) {
	raw, ok, err := s.kv.Get(ctx, balanceKey(userID))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return parseBalance(raw, userID), nil
}

func (s *KVBalanceStore) SetBalance(ctx context.Context, userID int, balance float64) error {
	return s.kv.Set(ctx, balanceKey(userID), formatBalance(pricing.Round2(balance)))
}

func (s *KVBalanceStore) Debit(ctx context.Context, userID int, cost float64) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	if cost > balance {
		return balance, false, nil
	}
	newBalance := pricing.Round2(balance - cost)
	if err := s.SetBalance(ctx, userID, newBalance); err != nil {
		return 0, false, err
	}
	return newBalance, true, nil
}

// RedisBalanceStore 直連 Redis 的實作；Debit 用 Lua 腳本確保原子性
type RedisBalanceStore struct {
	client *redis.Client
}

func NewRedisBalanceStore(client *redis.Client) BalanceStore {
	return &RedisBalanceStore{client: client}
}

func (s *RedisBalanceStore) GetBalance(ctx context.Context, userID int) (float64, error) {
	raw, err := s.client.Get(ctx, balanceKey(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseBalance(raw, userID), nil
}

func (s *RedisBalanceStore) SetBalance(ctx context.Context, userID int, balance float64) error {
	return s.client.Set(ctx, balanceKey(userID), formatBalance(pricing.Round2(balance)), 0).Err()
}

func (s *RedisBalanceStore) Debit(ctx context.Context, userID int, cost float64) (float64, bool, error) {
	script := `
		-- 1. 取得目前餘額(缺漏或壞檔視為 0)
		local key = KEYS[1]
		local cost = tonumber(ARGV[1])
		local balance = tonumber(redis.call('GET', key)) or 0

		-- 2. 檢查餘額
		if cost > balance then
			return {0, tostring(balance)} -- 餘額不足
		end

		-- 3. 扣款並回寫(四捨五入到分)
		local new_balance = math.floor((balance - cost) * 100 + 0.5) / 100
		redis.call('SET', key, tostring(new_balance))

		return {1, tostring(new_balance)} -- 扣款成功
	`

	result, err := s.client.Eval(ctx, script, []string{balanceKey(userID)}, cost).Result()
	if err != nil {
		return 0, false, err
	}

	resSlice := result.([]interface{})
	code := resSlice[0].(int64)
	balance, _ := strconv.ParseFloat(resSlice[1].(string), 64)

	return balance, code == 1, nil
}
