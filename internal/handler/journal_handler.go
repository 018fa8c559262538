package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/kokorolog/internal/journal"
	"github.com/hitoshi/kokorolog/internal/middleware"
	"github.com/hitoshi/kokorolog/internal/model"
)

// JournalServiceInterface はジャーナルハンドラーが必要とするサービスインターフェース。
type JournalServiceInterface interface {
	// CreateEntry はエントリを検証・サニタイズして作成する。
	CreateEntry(ctx context.Context, userID string, input journal.CreateInput) (*model.JournalEntry, error)
	// ListEntries はユーザーのエントリ一覧を返す。windowDaysが正の場合は直近分に絞り込む。
	ListEntries(ctx context.Context, userID string, windowDays int) ([]model.JournalEntry, error)
	// GetEntry は指定IDのエントリを返す。
	GetEntry(ctx context.Context, userID, entryID string) (*model.JournalEntry, error)
	// DeleteEntry は指定IDのエントリを削除する。
	DeleteEntry(ctx context.Context, userID, entryID string) error
}

// JournalHandler はジャーナルエントリ管理のHTTPハンドラー。
type JournalHandler struct {
	service JournalServiceInterface
}

// NewJournalHandler はJournalHandlerを生成する。
func NewJournalHandler(service JournalServiceInterface) *JournalHandler {
	return &JournalHandler{
		service: service,
	}
}

// createEntryRequest はエントリ作成リクエストのボディ。
type createEntryRequest struct {
	JournalType  string            `json:"journalType"`
	EmotionLevel int               `json:"emotionLevel"`
	BodyMapping  model.BodyMapping `json:"bodyMapping"`
	Content      string            `json:"content"`
}

// journalEntryResponse はエントリのAPIレスポンス。
type journalEntryResponse struct {
	ID           string            `json:"id"`
	JournalType  string            `json:"journalType"`
	EmotionLevel int               `json:"emotionLevel"`
	BodyMapping  model.BodyMapping `json:"bodyMapping"`
	Content      string            `json:"content"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// journalListResponse はエントリ一覧のAPIレスポンス。
type journalListResponse struct {
	Entries []journalEntryResponse `json:"entries"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreateEntry はエントリ作成を処理する。
// POST /api/journals
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	entry, err := h.service.CreateEntry(r.Context(), userID, journal.CreateInput{
		JournalType:  req.JournalType,
		EmotionLevel: req.EmotionLevel,
		BodyMapping:  req.BodyMapping,
		Content:      req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toJournalEntryResponse(entry))
}

// ListEntries はエントリ一覧を返す。
// GET /api/journals?window=30
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	windowDays := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		windowDays, err = strconv.Atoi(raw)
		if err != nil || windowDays < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("windowは0以上の整数で指定してください"))
			return
		}
	}

	entries, err := h.service.ListEntries(r.Context(), userID, windowDays)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := journalListResponse{Entries: make([]journalEntryResponse, len(entries))}
	for i := range entries {
		resp.Entries[i] = toJournalEntryResponse(&entries[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetEntry はエントリ詳細を返す。
// GET /api/journals/:id
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	entryID := chi.URLParam(r, "id")

	entry, err := h.service.GetEntry(r.Context(), userID, entryID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toJournalEntryResponse(entry))
}

// DeleteEntry はエントリを削除する。
// DELETE /api/journals/:id
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	entryID := chi.URLParam(r, "id")

	if err := h.service.DeleteEntry(r.Context(), userID, entryID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toJournalEntryResponse はmodel.JournalEntryからAPIレスポンスに変換する。
func toJournalEntryResponse(entry *model.JournalEntry) journalEntryResponse {
	return journalEntryResponse{
		ID:           entry.ID,
		JournalType:  string(entry.JournalType),
		EmotionLevel: entry.EmotionLevel,
		BodyMapping:  entry.BodyMapping,
		Content:      entry.Content,
		CreatedAt:    entry.CreatedAt,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeAuthRejected, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeLockedOut, model.ErrCodeEntryLimit:
		return http.StatusTooManyRequests
	case model.ErrCodeUpstreamProvider:
		return http.StatusBadGateway
	case model.ErrCodeEntryNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
