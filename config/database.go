package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds one connection pool shared by gorm and the raw SQL
// reporting queries.
type Database struct {
	SQL  *sqlx.DB
	Gorm *gorm.DB
}

func ConnectDatabase(cfg *Config) (*Database, error) {
	sqlDB, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnLifetime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	log.Info().Int("max_open_conns", cfg.DBMaxOpenConns).Msg("Database connected")
	return &Database{SQL: sqlDB, Gorm: gormDB}, nil
}

func (d *Database) Close() error {
	return d.SQL.Close()
}

// ConnectRedis returns nil when no address is configured.
func ConnectRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("Redis connected")
	return client, nil
}
