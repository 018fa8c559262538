package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/kokorolog/internal/analytics"
)

// --- モック定義 ---

type mockAnalyticsService struct {
	statsFn    func(ctx context.Context, userID string) (analytics.EmotionStats, error)
	weeklyFn   func(ctx context.Context, userID string) (analytics.WeeklyInsight, error)
	recoveryFn func(ctx context.Context, userID string) (analytics.RecoveryTendency, error)
}

func (m *mockAnalyticsService) Stats(ctx context.Context, userID string) (analytics.EmotionStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID)
	}
	return analytics.EmotionStats{}, nil
}

func (m *mockAnalyticsService) Weekly(ctx context.Context, userID string) (analytics.WeeklyInsight, error) {
	if m.weeklyFn != nil {
		return m.weeklyFn(ctx, userID)
	}
	return analytics.WeeklyInsight{}, nil
}

func (m *mockAnalyticsService) Recovery(ctx context.Context, userID string) (analytics.RecoveryTendency, error) {
	if m.recoveryFn != nil {
		return m.recoveryFn(ctx, userID)
	}
	return analytics.RecoveryTendency{}, nil
}

var _ AnalyticsServiceInterface = (*mockAnalyticsService)(nil)

// --- テスト ---

func TestAnalyticsHandler_Stats_ReturnsJSON(t *testing.T) {
	svc := &mockAnalyticsService{
		statsFn: func(ctx context.Context, userID string) (analytics.EmotionStats, error) {
			return analytics.EmotionStats{
				AverageEmotion: 3.5,
				TotalEntries:   12,
				WeeklyAverage:  4.0,
				MonthlyStreak:  5,
			}, nil
		},
	}
	h := NewAnalyticsHandler(svc)

	req := requestWithUser(httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil), "user-1")
	w := httptest.NewRecorder()

	h.Stats(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["averageEmotion"] != 3.5 {
		t.Errorf("averageEmotion = %v, want 3.5", body["averageEmotion"])
	}
	if body["totalEntries"] != float64(12) {
		t.Errorf("totalEntries = %v, want 12", body["totalEntries"])
	}
	if body["monthlyStreak"] != float64(5) {
		t.Errorf("monthlyStreak = %v, want 5", body["monthlyStreak"])
	}
}

func TestAnalyticsHandler_Stats_EmptyData_ReturnsZeroDefaults(t *testing.T) {
	h := NewAnalyticsHandler(&mockAnalyticsService{})

	req := requestWithUser(httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil), "user-1")
	w := httptest.NewRecorder()

	h.Stats(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d (empty data is not an error)", resp.StatusCode, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["totalEntries"] != float64(0) {
		t.Errorf("totalEntries = %v, want 0", body["totalEntries"])
	}
}

func TestAnalyticsHandler_Weekly_ReturnsSeriesAndInterpretation(t *testing.T) {
	svc := &mockAnalyticsService{
		weeklyFn: func(ctx context.Context, userID string) (analytics.WeeklyInsight, error) {
			return analytics.WeeklyInsight{
				Series: analytics.ChartSeries{
					Data:   []float64{3, 3, 3, 3, 3, 3.95, 3},
					Labels: []string{"Thu", "Fri", "Sat", "Sun", "Mon", "Tue", "Wed"},
				},
				BestDay:    "Tue",
				Trend:      "improving",
				Volatility: "stable",
			}, nil
		},
	}
	h := NewAnalyticsHandler(svc)

	req := requestWithUser(httptest.NewRequest(http.MethodGet, "/api/analytics/weekly", nil), "user-1")
	w := httptest.NewRecorder()

	h.Weekly(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Series struct {
			Data   []float64 `json:"data"`
			Labels []string  `json:"labels"`
		} `json:"series"`
		BestDay    string `json:"bestDay"`
		Trend      string `json:"trend"`
		Volatility string `json:"volatility"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Series.Data) != 7 || len(body.Series.Labels) != 7 {
		t.Errorf("series length = %d/%d, want 7/7", len(body.Series.Data), len(body.Series.Labels))
	}
	if body.BestDay != "Tue" {
		t.Errorf("bestDay = %q, want %q", body.BestDay, "Tue")
	}
}

func TestAnalyticsHandler_Recovery_ReturnsTendency(t *testing.T) {
	svc := &mockAnalyticsService{
		recoveryFn: func(ctx context.Context, userID string) (analytics.RecoveryTendency, error) {
			return analytics.RecoveryTendency{
				Status:          "recovering",
				ChangePct:       31.67,
				RecentAverage:   3.95,
				BaselineAverage: 3.0,
				Volatility:      "stable",
			}, nil
		},
	}
	h := NewAnalyticsHandler(svc)

	req := requestWithUser(httptest.NewRequest(http.MethodGet, "/api/analytics/recovery", nil), "user-1")
	w := httptest.NewRecorder()

	h.Recovery(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "recovering" {
		t.Errorf("status = %v, want recovering", body["status"])
	}
}

func TestAnalyticsHandler_NoUserID_Returns401(t *testing.T) {
	h := NewAnalyticsHandler(&mockAnalyticsService{})

	endpoints := map[string]http.HandlerFunc{
		"/api/analytics/stats":    h.Stats,
		"/api/analytics/weekly":   h.Weekly,
		"/api/analytics/recovery": h.Recovery,
	}

	for path, handler := range endpoints {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", path, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}
}
