package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/kokorolog/internal/metrics"
	"github.com/hitoshi/kokorolog/internal/middleware"
)

// HealthChecker はヘルスチェックの依存先確認インターフェース。
type HealthChecker interface {
	// Ping は依存先（DB等）への到達性を確認する。
	Ping(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Collector         metrics.MetricsCollector

	// 運用エンドポイント
	MetricsHandler http.Handler // nil可。設定時のみ/metricsを公開する
	HealthChecker  HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ジャーナル
	JournalService JournalServiceInterface

	// 分析
	AnalyticsService AnalyticsServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Metrics → (ルートグループごとのミドルウェア)
//
// 認証ルート（/auth/*）はIPキーのレート制限のみを通し、
// APIルート（/api/*）は Session → CSRF → レート制限（ユーザーキー）を通す。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア。Recoveryを最上位に置き、
	// 後続ミドルウェアとハンドラーのpanicをすべて回収する。
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewMetricsMiddleware(deps.Collector))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	journalHandler := NewJournalHandler(deps.JournalService)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 運用エンドポイント（認証不要） ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// CSRFトークン取得（認証不要）
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- 認証ルート ---
	// 未認証リクエストが対象のため、IPキーのレート制限を適用する。
	// メールアドレス単位のソフトロックはサービス層で行う。
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/password-reset", authHandler.RequestPasswordReset)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ジャーナル管理
		r.Route("/api/journals", func(r chi.Router) {
			r.Post("/", journalHandler.CreateEntry)
			r.Get("/", journalHandler.ListEntries)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", journalHandler.GetEntry)
				r.Delete("/", journalHandler.DeleteEntry)
			})
		})

		// 派生スコア集計
		r.Route("/api/analytics", func(r chi.Router) {
			r.Get("/stats", analyticsHandler.Stats)
			r.Get("/weekly", analyticsHandler.Weekly)
			r.Get("/recovery", analyticsHandler.Recovery)
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)
		})
	})

	return r
}

// newHealthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// checkerがnilの場合はプロセス生存のみを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if checker != nil {
			if err := checker.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "unavailable",
				})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	}
}
