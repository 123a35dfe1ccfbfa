package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/connectsphere/backend/internal/models"
)

// BanStateCache кэширует проекцию блокировок в Redis, чтобы enforcement
// middleware выполнял один дешёвый lookup на запрос без похода в Postgres.
// Кэш — необязательный слой: при недоступном Redis сервис работает напрямую с БД.
type BanStateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBanStateCache создаёт клиент и проверяет соединение.
func NewBanStateCache(addr, password string, db int, ttl time.Duration) (*BanStateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: не удалось подключиться к Redis: %w", err)
	}

	return &BanStateCache{client: client, ttl: ttl}, nil
}

// Close закрывает соединение с Redis.
func (c *BanStateCache) Close() error {
	return c.client.Close()
}

func banStateKey(userID uuid.UUID) string {
	return "banstate:user:" + userID.String()
}

// Get возвращает закэшированную проекцию. Второе значение — признак попадания.
func (c *BanStateCache) Get(ctx context.Context, userID uuid.UUID) (*models.BanState, bool, error) {
	raw, err := c.client.Get(ctx, banStateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: ошибка чтения проекции: %w", err)
	}

	var state models.BanState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, fmt.Errorf("cache: повреждённая запись проекции: %w", err)
	}
	return &state, true, nil
}

// Set сохраняет проекцию с TTL. Кэшируется и "нет блокировки" (пустой state),
// иначе каждый запрос незаблокированного пользователя шёл бы в БД.
func (c *BanStateCache) Set(ctx context.Context, userID uuid.UUID, state *models.BanState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("cache: не удалось сериализовать проекцию: %w", err)
	}
	if err := c.client.Set(ctx, banStateKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: ошибка записи проекции: %w", err)
	}
	return nil
}

// Invalidate сбрасывает проекцию после выдачи или снятия блокировки.
func (c *BanStateCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, banStateKey(userID)).Err(); err != nil {
		return fmt.Errorf("cache: ошибка инвалидации проекции: %w", err)
	}
	return nil
}
