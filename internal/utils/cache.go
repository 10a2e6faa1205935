package utils

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResponseCache 进程内的响应缓存，服务排行榜、板块列表这类
// 读多写少的聚合查询。条目带 TTL，过期按未命中处理并顺手淘汰，
// 容量由 LRU 兜底，不需要单独的清理协程。
type ResponseCache struct {
	entries *lru.Cache[string, cacheEntry]
}

type cacheEntry struct {
	payload   map[string]interface{}
	expiresAt time.Time
}

var (
	responseCache *ResponseCache
	cacheOnce     sync.Once
)

// GetCache 获取单例缓存实例
func GetCache() *ResponseCache {
	cacheOnce.Do(func() {
		l, err := lru.New[string, cacheEntry](256)
		if err != nil {
			log.Fatalf("创建 LRU 缓存失败: %v", err)
		}
		responseCache = &ResponseCache{entries: l}
	})
	return responseCache
}

// SetPayload 缓存一份 JSON 响应体，ttl 后过期
func (c *ResponseCache) SetPayload(key string, payload map[string]interface{}, ttl time.Duration) {
	c.entries.Add(key, cacheEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	})
}

// GetPayload 取缓存的响应体，不存在或已过期返回 false
func (c *ResponseCache) GetPayload(key string) (map[string]interface{}, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.payload, true
}
