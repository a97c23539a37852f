package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

func PostgresDSN(src *Source) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		src.String("DB_HOST", "localhost"),
		src.String("DB_PORT", "5432"),
		src.String("DB_USER", "postgres"),
		src.String("DB_PASSWORD", ""),
		src.String("DB_NAME", "blockandjerrys"),
		src.String("DB_SSLMODE", "disable"),
	)
}

func InitPostgres(ctx context.Context, src *Source) (*sql.DB, error) {
	db, err := sql.Open("postgres", PostgresDSN(src))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// InitRedis returns nil when REDIS_HOST is unset.
func InitRedis(ctx context.Context, src *Source) (*redis.Client, error) {
	host := src.String("REDIS_HOST", "")
	if host == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + src.String("REDIS_PORT", "6379"),
		Password: src.String("REDIS_PASSWORD", ""),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// NewKafkaReader returns nil when KAFKA_BROKER is unset.
func NewKafkaReader(src *Source, topic, groupID string) *kafka.Reader {
	brokers := src.List("KAFKA_BROKER")
	if len(brokers) == 0 {
		return nil
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// NewKafkaWriter returns nil when KAFKA_BROKER is unset.
func NewKafkaWriter(src *Source, topic string) *kafka.Writer {
	brokers := src.List("KAFKA_BROKER")
	if len(brokers) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}
