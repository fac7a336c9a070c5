package recipe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ExtractionCache 萃取結果緩存
// 以字幕全文的雜湊值為鍵，同一部影片重新生成時不必再呼叫模型
type ExtractionCache struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewExtractionCache 創建萃取結果緩存
// 緩存停用時回傳可用但永遠未命中的實例
func NewExtractionCache(cfg *config.CacheConfig) (*ExtractionCache, error) {
	if !cfg.Enabled {
		return &ExtractionCache{config: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("萃取結果緩存已初始化",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", cfg.TTL))

	return &ExtractionCache{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存的萃取結果
func (c *ExtractionCache) Get(ctx context.Context, transcript string) (*extractionResult, error) {
	if !c.config.Enabled || c.client == nil {
		return nil, common.ErrCacheDisabled
	}

	key := c.generateKey(transcript)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, common.ErrCacheDisabled
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var result extractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}

	common.LogDebug("萃取結果快取命中", zap.String("鍵", key))
	return &result, nil
}

// Set 設置緩存的萃取結果
func (c *ExtractionCache) Set(ctx context.Context, transcript string, result *extractionResult) error {
	if !c.config.Enabled || c.client == nil {
		return nil
	}

	key := c.generateKey(transcript)

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉 Redis 連線
func (c *ExtractionCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// generateKey 以字幕全文產生緩存鍵
func (c *ExtractionCache) generateKey(transcript string) string {
	hash := sha256.Sum256([]byte(transcript))
	return fmt.Sprintf("recipe:extraction:%s", hex.EncodeToString(hash[:]))
}
