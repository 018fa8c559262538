package middleware

import (
	"net/http"

	"github.com/hitoshi/kokorolog/internal/metrics"
)

// NewMetricsMiddleware はレスポンスのステータスコードをメトリクスに
// 記録するミドルウェアを返す。collectorがnilの場合は素通しする。
func NewMetricsMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if collector == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(capture, r)

			collector.RecordHTTPStatus(capture.status)
		})
	}
}
