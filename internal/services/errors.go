package services

import (
	"errors"
	"fmt"
)

// 核心层的错误分类，handler 层统一翻译成 HTTP 状态码。
// 所有守卫失败都发生在任何写入之前，调用方解除原因后重试总是安全的。
var (
	ErrNotFound     = errors.New("NOT_FOUND")      // 目标不存在
	ErrTargetFrozen = errors.New("TARGET_FROZEN")  // 目标已删除/隐藏，不可投票
	ErrSelfVote     = errors.New("SELF_VOTE")      // 不能给自己的内容投票
	ErrBanned       = errors.New("BANNED")         // 被全站或板块封禁
	ErrForbidden    = errors.New("FORBIDDEN")      // 无权限执行该操作
)

// RateLimitedError 配额或冷却触顶，带下次可重试的秒数
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("RATE_LIMITED: retry after %ds", e.RetryAfterSeconds)
}

// IsRateLimited 取出限流错误，拿 Retry-After
func IsRateLimited(err error) (*RateLimitedError, bool) {
	var rle *RateLimitedError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}
