package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/kokorolog/internal/analytics"
	"github.com/hitoshi/kokorolog/internal/middleware"
	"github.com/hitoshi/kokorolog/internal/model"
)

// AnalyticsServiceInterface は分析ハンドラーが必要とするサービスインターフェース。
// いずれの集計もエントリ0件を定義済みのデフォルト値として扱い、エラーにしない。
type AnalyticsServiceInterface interface {
	// Stats はユーザーの感情統計を返す。
	Stats(ctx context.Context, userID string) (analytics.EmotionStats, error)
	// Weekly は直近7日間のスコア系列と解釈を返す。
	Weekly(ctx context.Context, userID string) (analytics.WeeklyInsight, error)
	// Recovery は回復傾向の判定結果を返す。
	Recovery(ctx context.Context, userID string) (analytics.RecoveryTendency, error)
}

// AnalyticsHandler は派生スコア集計のHTTPハンドラー。
type AnalyticsHandler struct {
	service AnalyticsServiceInterface
}

// NewAnalyticsHandler はAnalyticsHandlerを生成する。
func NewAnalyticsHandler(service AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

// Stats は感情統計を返す。
// GET /api/analytics/stats
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// Weekly は週次チャートとその解釈を返す。
// GET /api/analytics/weekly
func (h *AnalyticsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	insight, err := h.service.Weekly(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(insight)
}

// Recovery は回復傾向の判定結果を返す。
// GET /api/analytics/recovery
func (h *AnalyticsHandler) Recovery(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	tendency, err := h.service.Recovery(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tendency)
}
