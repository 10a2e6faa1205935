package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayStart(t *testing.T) {
	// UTC 20:00 在 KST 已是次日 05:00，日界应落在 UTC 15:00
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), DayStart(now))

	// UTC 10:00 在 KST 还是当天 19:00，日界是前一天的 UTC 15:00
	now = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC), DayStart(now))

	// 正好在日界上
	now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, now, DayStart(now))
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 59, 30, 0, time.UTC)
	assert.Equal(t, 30, RetryAfterSeconds(now))

	// 不足一秒向上取整
	now = time.Date(2026, 3, 10, 14, 59, 30, 500_000_000, time.UTC)
	assert.Equal(t, 30, RetryAfterSeconds(now))

	now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, 24*3600, RetryAfterSeconds(now))
}

func TestCheckAndIncrementDailyLimit(t *testing.T) {
	gdb := newTestDB(t)
	subject := ActorSubjectKey(1)

	// 上限 3：前三次放行且剩余递减
	for i := 0; i < 3; i++ {
		result, err := CheckAndIncrement(gdb, subject, ActionVoteDay, 3, testNow)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2-i, result.Remaining)
	}

	// 第四次拒绝，重试秒数指向下一个 KST 日界
	result, err := CheckAndIncrement(gdb, subject, ActionVoteDay, 3, testNow)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, RetryAfterSeconds(testNow), result.RetryAfterSeconds)

	// 不同动作、不同主体互不影响
	other, err := CheckAndIncrement(gdb, subject, ActionPostDay, 3, testNow)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	other, err = CheckAndIncrement(gdb, ActorSubjectKey(2), ActionVoteDay, 3, testNow)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	// 过了日界计数归零
	nextDay := testNow.Add(24 * time.Hour)
	result, err = CheckAndIncrement(gdb, subject, ActionVoteDay, 3, nextDay)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 2, result.Remaining)
}

func TestCheckCooldown(t *testing.T) {
	gdb := newTestDB(t)
	subject := ActorSubjectKey(1)
	windowStart := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	result, err := CheckCooldown(gdb, subject, ActionPostCool, 300, windowStart)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	// 同一窗口内第二次被拒，重试秒数到窗口结束
	result, err = CheckCooldown(gdb, subject, ActionPostCool, 300, windowStart.Add(10*time.Second))
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 290, result.RetryAfterSeconds)

	// 窗口滚动后放行
	result, err = CheckCooldown(gdb, subject, ActionPostCool, 300, windowStart.Add(300*time.Second))
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestCheckWindowQuota(t *testing.T) {
	gdb := newTestDB(t)
	subject := IPSubjectKey("abcd1234")
	now := time.Date(2026, 3, 10, 12, 0, 5, 0, time.UTC)

	for i := 0; i < 2; i++ {
		result, err := CheckWindowQuota(gdb, subject, "post_ip_min", 2, 60, now)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := CheckWindowQuota(gdb, subject, "post_ip_min", 2, 60, now)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 55, result.RetryAfterSeconds)

	result, err = CheckWindowQuota(gdb, subject, "post_ip_min", 2, 60, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestQuotaMissingTableFailsClosed(t *testing.T) {
	gdb := newBareDB(t)
	subject := ActorSubjectKey(1)

	// 生产路径：表不存在是硬错误，绝不放行
	t.Setenv("E2E_TEST", "")
	_, err := CheckAndIncrement(gdb, subject, ActionVoteDay, 3, testNow)
	require.Error(t, err)
	_, err = CheckWindowQuota(gdb, subject, "post_ip_min", 10, 60, testNow)
	require.Error(t, err)
	_, err = CheckCooldown(gdb, subject, ActionPostCool, 300, testNow)
	require.Error(t, err)
}

func TestQuotaMissingTableFailsOpenInE2E(t *testing.T) {
	gdb := newBareDB(t)
	subject := ActorSubjectKey(1)

	// 显式测试模式下引导期表未就绪按放行处理
	t.Setenv("E2E_TEST", "1")
	quota, err := CheckAndIncrement(gdb, subject, ActionVoteDay, 3, testNow)
	require.NoError(t, err)
	assert.True(t, quota.Allowed)

	window, err := CheckWindowQuota(gdb, subject, "post_ip_min", 10, 60, testNow)
	require.NoError(t, err)
	assert.True(t, window.Allowed)

	cooldown, err := CheckCooldown(gdb, subject, ActionPostCool, 300, testNow)
	require.NoError(t, err)
	assert.True(t, cooldown.Allowed)
}

func TestDailyLimitDefaults(t *testing.T) {
	assert.Equal(t, 3, DailyLimit(ActionPostDay, true))
	assert.Equal(t, 10, DailyLimit(ActionPostDay, false))
	assert.Equal(t, 15, DailyLimit(ActionCommentDay, true))
	assert.Equal(t, 200, DailyLimit(ActionCommentDay, false))
	assert.Equal(t, 200, DailyLimit(ActionVoteDay, true))
	assert.Equal(t, 500, DailyLimit(ActionVoteDay, false))
}

func TestDailyLimitEnvOverride(t *testing.T) {
	t.Setenv("QUOTA_POSTS_PER_DAY", "7")
	assert.Equal(t, 7, DailyLimit(ActionPostDay, false))

	// 非法值回落到默认
	t.Setenv("QUOTA_POSTS_PER_DAY", "lots")
	assert.Equal(t, 10, DailyLimit(ActionPostDay, false))
}

func TestCooldownSeconds(t *testing.T) {
	assert.Equal(t, 300, CooldownSeconds(ActionPostCool))
	assert.Equal(t, 60, CooldownSeconds(ActionCommentCool))

	t.Setenv("COOLDOWN_COMMENT_SECONDS", "5")
	assert.Equal(t, 5, CooldownSeconds(ActionCommentCool))
}
