package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseCapture はステータスコード記録用のhttp.ResponseWriterラッパー。
// WriteHeaderが複数回呼ばれても最初のコードだけを保持する。
type responseCapture struct {
	http.ResponseWriter
	status      int
	headersSent bool
}

func (c *responseCapture) WriteHeader(code int) {
	if !c.headersSent {
		c.status = code
		c.headersSent = true
	}
	c.ResponseWriter.WriteHeader(code)
}

// Write はWriteHeader未呼び出しのまま書き込まれた場合、暗黙の200を記録する。
func (c *responseCapture) Write(b []byte) (int, error) {
	if !c.headersSent {
		c.status = http.StatusOK
		c.headersSent = true
	}
	return c.ResponseWriter.Write(b)
}

// logLevelForStatus はレスポンスステータスに応じたログレベルを返す。
// 5xxはエラー、4xxは警告、それ以外は情報。
func logLevelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewLoggingMiddleware は全HTTPリクエストを1行のJSON構造化ログに記録する
// ミドルウェアを返す。method、path、status、duration_msを常に含み、
// セッション認証済みリクエストではuser_idも記録する。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(capture, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", capture.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000.0),
			}
			if userID, err := UserIDFromContext(r.Context()); err == nil && userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}

			logger.LogAttrs(r.Context(), logLevelForStatus(capture.status), "http_request", attrs...)
		})
	}
}
