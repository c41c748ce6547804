package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trentd187/hockey-league/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Denylist remembers revoked token ids until they expire.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// GormDenylist stores revoked ids in the revoked_tokens table.
type GormDenylist struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormDenylist(db *gorm.DB) *GormDenylist {
	return &GormDenylist{db: db, now: time.Now}
}

// Revoke records jti; revoking the same id twice is not an error.
// Expired rows are purged on the way so the table only holds live entries.
func (d *GormDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	db := d.db.WithContext(ctx)
	if err := db.Where("expires_at <= ?", d.now()).Delete(&models.RevokedToken{}).Error; err != nil {
		return fmt.Errorf("purge revoked tokens: %w", err)
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{JTI: jti, ExpiresAt: until}).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *GormDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, d.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup revoked token: %w", err)
	}
	return count > 0, nil
}

// RedisDenylist stores each revoked id as a key that expires with the token.
type RedisDenylist struct {
	client *redis.Client
	prefix string
}

func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client, prefix: "revoked_token:"}
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Already expired: the token is rejected on its exp claim anyway.
		return nil
	}
	if err := d.client.Set(ctx, d.prefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.client.Get(ctx, d.prefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup revoked token: %w", err)
	}
	return true, nil
}

// RedisOptions configures the Redis connection used by the denylist.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings, so a misconfigured address fails at startup.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}
