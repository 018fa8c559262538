package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/kokorolog/internal/metrics"
	"github.com/hitoshi/kokorolog/internal/repository"
)

// WeeklyInsight は週次チャートとその解釈をまとめたビューモデル。
type WeeklyInsight struct {
	Series     ChartSeries `json:"series"`
	BestDay    string      `json:"bestDay"`
	Trend      string      `json:"trend"`
	Volatility string      `json:"volatility"`
}

// Service はジャーナルエントリを読み込み、派生スコアの集計を提供する。
// 計算自体は純粋関数に委譲し、このサービスはデータ取得と計測のみを担う。
type Service struct {
	journalRepo repository.JournalRepository
	recoveryCfg RecoveryConfig
	collector   metrics.MetricsCollector
	clock       func() time.Time
}

// NewService はServiceを生成する。
// clockがnilの場合はtime.Nowを使用する。collectorはnil可。
func NewService(
	journalRepo repository.JournalRepository,
	recoveryCfg RecoveryConfig,
	collector metrics.MetricsCollector,
	clock func() time.Time,
) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		journalRepo: journalRepo,
		recoveryCfg: recoveryCfg,
		collector:   collector,
		clock:       clock,
	}
}

// Stats はユーザーの感情統計を返す。
// エントリが1件もない場合はすべてゼロのデフォルト値を返す。
func (s *Service) Stats(ctx context.Context, userID string) (EmotionStats, error) {
	defer s.observeLatency(s.clock())

	entries, err := s.journalRepo.ListByUser(ctx, userID, time.Time{})
	if err != nil {
		return EmotionStats{}, fmt.Errorf("failed to load journal entries: %w", err)
	}

	return GetEmotionStats(entries, s.clock()), nil
}

// Weekly は直近7日間のスコア系列と解釈を返す。
// エントリのない日は中立値3で埋められ、系列は常に7点になる。
func (s *Service) Weekly(ctx context.Context, userID string) (WeeklyInsight, error) {
	defer s.observeLatency(s.clock())

	now := s.clock()
	since := now.AddDate(0, 0, -weeklyWindowDays)

	entries, err := s.journalRepo.ListByUser(ctx, userID, since)
	if err != nil {
		return WeeklyInsight{}, fmt.Errorf("failed to load journal entries: %w", err)
	}

	series := WeeklySensorySeries(entries, now)

	return WeeklyInsight{
		Series:     series,
		BestDay:    series.Labels[BestDayIndex(series.Data)],
		Trend:      TrendDirection(series.Data),
		Volatility: VolatilityLabel(series.Data),
	}, nil
}

// Recovery は回復傾向の判定結果を返す。
func (s *Service) Recovery(ctx context.Context, userID string) (RecoveryTendency, error) {
	defer s.observeLatency(s.clock())

	now := s.clock()
	since := now.AddDate(0, 0, -s.recoveryCfg.BaselineWindowDays)

	entries, err := s.journalRepo.ListByUser(ctx, userID, since)
	if err != nil {
		return RecoveryTendency{}, fmt.Errorf("failed to load journal entries: %w", err)
	}

	return DetectRecoveryTendency(entries, now, s.recoveryCfg), nil
}

// observeLatency は処理開始時刻からの経過時間をメトリクスに記録する。
func (s *Service) observeLatency(start time.Time) {
	if s.collector != nil {
		s.collector.RecordAnalyticsLatency(s.clock().Sub(start))
	}
}
