package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 触发结果
const (
	OutcomeSuccess  = "success"
	OutcomeTooSoon  = "too_soon"
	OutcomeConfig   = "config_error"
	OutcomeUpstream = "upstream_error"
	OutcomeFailed   = "failed"
)

// SyncMetrics 同步相关指标
// 方法对 nil 接收者安全，未注入时等同关闭
type SyncMetrics struct {
	// 触发次数（按同步类型 / 结果）
	RunsTotal *prometheus.CounterVec

	// 单次同步耗时
	RunDuration *prometheus.HistogramVec

	// 订单新增 / 更新
	OrdersSyncedTotal *prometheus.CounterVec

	// 新会员
	MembersAddedTotal prometheus.Counter

	// 上游分页请求数
	UpstreamPagesTotal *prometheus.CounterVec

	// 订单水位（unix 秒）
	OrderWatermark prometheus.Gauge
}

// NewSyncMetrics 在给定 Registerer 上注册指标
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)

	return &SyncMetrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_runs_total",
				Help: "Sync trigger invocations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sync_run_duration_seconds",
				Help:    "Duration of admitted sync runs",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"kind"},
		),

		OrdersSyncedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_orders_total",
				Help: "Orders written by the order sync",
			},
			[]string{"op"},
		),

		MembersAddedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sync_members_added_total",
				Help: "Members inserted by the member sync",
			},
		),

		UpstreamPagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_upstream_pages_total",
				Help: "Pages fetched from upstream providers",
			},
			[]string{"provider"},
		),

		OrderWatermark: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sync_order_watermark_timestamp_seconds",
				Help: "Latest Squarespace order date persisted as watermark",
			},
		),
	}
}

// ObserveRun 记录一次触发
func (m *SyncMetrics) ObserveRun(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(kind, outcome).Inc()
	if elapsed > 0 {
		m.RunDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

// AddOrders 记录订单写入
func (m *SyncMetrics) AddOrders(added, updated int) {
	if m == nil {
		return
	}
	m.OrdersSyncedTotal.WithLabelValues("added").Add(float64(added))
	m.OrdersSyncedTotal.WithLabelValues("updated").Add(float64(updated))
}

// AddMembers 记录新会员
func (m *SyncMetrics) AddMembers(n int) {
	if m == nil {
		return
	}
	m.MembersAddedTotal.Add(float64(n))
}

// AddPages 记录上游分页
func (m *SyncMetrics) AddPages(provider string, n int) {
	if m == nil {
		return
	}
	m.UpstreamPagesTotal.WithLabelValues(provider).Add(float64(n))
}

// SetWatermark 记录订单水位
func (m *SyncMetrics) SetWatermark(t time.Time) {
	if m == nil {
		return
	}
	m.OrderWatermark.Set(float64(t.Unix()))
}
