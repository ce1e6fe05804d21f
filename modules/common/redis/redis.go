package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bapsang-intake-server/modules/common/config"
)

const (
	// QueueKey - 제출 Job Queue 키
	QueueKey = "submissions:queue"

	cancelKeyFormat   = "submission:cancel:%s"
	payloadKeyFormat  = "submission:payload:%s"
	progressKeyFormat = "submission:progress:%s"

	cancelTTL  = 1 * time.Hour
	payloadTTL = 24 * time.Hour
)

// Connect - Redis 연결 생성
func Connect(cfg *config.Config) *redis.Client {
	log.Printf("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	// TLS 설정 (InsecureSkipVerify 추가)
	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // Render.com Redis용
		}
	}

	// Redis 클라이언트 생성
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,                // 기본 DB
		DialTimeout:  10 * time.Second, // 타임아웃 늘림
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// 연결 테스트
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("🔍 Testing Redis connection...")
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis ping failed: %v", err)
		return nil
	}

	return rdb
}

// Enqueue - Job ID를 Queue에 추가, 현재 Queue 길이 반환
func Enqueue(rdb *redis.Client, jobID string) (int64, error) {
	ctx := context.Background()
	if err := rdb.LPush(ctx, QueueKey, jobID).Err(); err != nil {
		return 0, fmt.Errorf("failed to enqueue job: %w", err)
	}
	return rdb.LLen(ctx, QueueKey).Result()
}

// SetJobCancelled - Job 취소 플래그 설정
func SetJobCancelled(rdb *redis.Client, jobID string) error {
	key := fmt.Sprintf(cancelKeyFormat, jobID)
	return rdb.Set(context.Background(), key, "1", cancelTTL).Err()
}

// IsJobCancelled - Job 취소 여부 확인
func IsJobCancelled(rdb *redis.Client, jobID string) bool {
	key := fmt.Sprintf(cancelKeyFormat, jobID)
	exists, err := rdb.Exists(context.Background(), key).Result()
	if err != nil {
		log.Printf("⚠️  Failed to check cancel flag for %s: %v", jobID, err)
		return false
	}
	return exists > 0
}

// StashPayload - 제출 Batch payload를 Redis에 임시 저장 (worker가 읽음)
func StashPayload(rdb *redis.Client, jobID string, payload []byte) error {
	key := fmt.Sprintf(payloadKeyFormat, jobID)
	return rdb.Set(context.Background(), key, payload, payloadTTL).Err()
}

// FetchPayload - 저장된 payload 조회
func FetchPayload(rdb *redis.Client, jobID string) ([]byte, error) {
	key := fmt.Sprintf(payloadKeyFormat, jobID)
	data, err := rdb.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payload for %s: %w", jobID, err)
	}
	return data, nil
}

// DeletePayload - 처리 완료된 payload 삭제
func DeletePayload(rdb *redis.Client, jobID string) {
	key := fmt.Sprintf(payloadKeyFormat, jobID)
	if err := rdb.Del(context.Background(), key).Err(); err != nil {
		log.Printf("⚠️  Failed to delete payload for %s: %v", jobID, err)
	}
}

// MirrorProgress - 진행 상황 스냅샷을 Redis에 저장 (progress API가 읽음)
func MirrorProgress(rdb *redis.Client, jobID string, snapshot []byte) error {
	key := fmt.Sprintf(progressKeyFormat, jobID)
	return rdb.Set(context.Background(), key, snapshot, payloadTTL).Err()
}

// FetchProgress - 저장된 진행 상황 스냅샷 조회
func FetchProgress(rdb *redis.Client, jobID string) ([]byte, error) {
	key := fmt.Sprintf(progressKeyFormat, jobID)
	data, err := rdb.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress for %s: %w", jobID, err)
	}
	return data, nil
}
