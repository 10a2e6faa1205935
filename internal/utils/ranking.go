package utils

import (
	"math"
	"time"
)

// HotEpochSeconds 热度公式的固定参考时刻（2024-01-01 00:00:00 UTC）。
// 用固定纪元而不是"现在"，历史分数才能长期可比，不需要定期重算。
const HotEpochSeconds int64 = 1704067200

// ComputeHotScore 时间衰减热度分：
// log10(max(1, up-down)) + (createdAt - 纪元秒)/45000
// 对数项压平票数差距，时间项保证越新的帖子基础分越高。
func ComputeHotScore(up, down int, createdAt time.Time) float64 {
	net := up - down
	if net < 1 {
		net = 1
	}
	return math.Log10(float64(net)) + float64(createdAt.Unix()-HotEpochSeconds)/45000
}

// ComputeDiscussedScore 讨论热度分：评论权重 2，净赞权重 1。
// 同分时按时间排序在查询层处理，这里不掺时间因素。
func ComputeDiscussedScore(commentCount, up, down int) int {
	return commentCount*2 + (up - down)
}
