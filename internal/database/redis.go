package database

import (
	"context"
	"fmt"
	"go-parking-payment/config"
	"time"

	"github.com/redis/go-redis/v9"
)

// InitRedis 建立 Redis 連線。票券清單、錢包餘額與儲值紀錄都存在這裡
func InitRedis(config *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
