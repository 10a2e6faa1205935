package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 核心链路的计数指标，/metrics 暴露
var (
	votesAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlink_votes_applied_total",
		Help: "Votes applied successfully, labeled by resulting direction.",
	}, []string{"direction"})

	votesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlink_votes_rejected_total",
		Help: "Vote attempts rejected by a guard, labeled by error kind.",
	}, []string{"kind"})

	rateLimitRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlink_rate_limit_rejections_total",
		Help: "Requests rejected by quota or cooldown, labeled by action key.",
	}, []string{"action"})

	confiscationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentlink_confiscations_total",
		Help: "Content confiscations actually applied.",
	})

	confiscatedPointsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentlink_confiscated_points_total",
		Help: "Total points reclaimed by confiscation.",
	})
)

// ObserveVoteApplied 投票成功后打点
func ObserveVoteApplied(direction string) {
	votesAppliedTotal.WithLabelValues(direction).Inc()
}

// ObserveVoteRejected 投票被守卫拦下后打点
func ObserveVoteRejected(kind string) {
	votesRejectedTotal.WithLabelValues(kind).Inc()
}

// ObserveRateLimited 限流拒绝打点
func ObserveRateLimited(actionKey string) {
	rateLimitRejectionsTotal.WithLabelValues(actionKey).Inc()
}

// ObserveConfiscation 没收实际发生后打点
func ObserveConfiscation(points int) {
	confiscationsTotal.Inc()
	confiscatedPointsTotal.Add(float64(points))
}
