// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービス・ジャーナルサービス・ミドルウェアから利用する。
type MetricsCollector interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordLockout()
	RecordLockedRejection()
	RecordEntryCreated(journalType string)
	RecordHTTPStatus(statusCode int)
	RecordAnalyticsLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginSuccess     prometheus.Counter
	loginFailure     prometheus.Counter
	lockouts         prometheus.Counter
	lockedRejections prometheus.Counter
	entriesCreated   *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	analyticsLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kokorolog_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kokorolog_login_failure_total",
			Help: "ログイン失敗の合計数",
		}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kokorolog_lockout_total",
			Help: "新規に発生したログインロックの合計数",
		}),
		lockedRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kokorolog_locked_rejection_total",
			Help: "ロック中に拒否されたログイン試行の合計数",
		}),
		entriesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kokorolog_entries_created_total",
			Help: "ジャーナル種別ごとの作成エントリ数",
		}, []string{"journal_type"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kokorolog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		analyticsLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kokorolog_analytics_latency_seconds",
			Help:    "スコア集計のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFailure,
		c.lockouts,
		c.lockedRejections,
		c.entriesCreated,
		c.httpStatus,
		c.analyticsLatency,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFailure.Inc()
}

// RecordLockout は新規ロックの発生を記録する。
func (c *Collector) RecordLockout() {
	c.lockouts.Inc()
}

// RecordLockedRejection はロック中の試行拒否を記録する。
func (c *Collector) RecordLockedRejection() {
	c.lockedRejections.Inc()
}

// RecordEntryCreated はエントリ作成をジャーナル種別付きで記録する。
func (c *Collector) RecordEntryCreated(journalType string) {
	c.entriesCreated.WithLabelValues(journalType).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAnalyticsLatency はスコア集計のレイテンシを記録する。
func (c *Collector) RecordAnalyticsLatency(duration time.Duration) {
	c.analyticsLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
