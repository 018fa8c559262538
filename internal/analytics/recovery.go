package analytics

import (
	"time"

	"github.com/hitoshi/kokorolog/internal/model"
)

// 回復傾向の分類。
const (
	RecoveryRecovering       = "recovering"
	RecoveryDeclining        = "declining"
	RecoverySteady           = "steady"
	RecoveryInsufficientData = "insufficient_data"
)

// RecoveryConfig は回復・悪化判定の設定。
// トリガーしきい値は仕様上の未確定事項であり、推測で固定せず
// 運用側が調整できる設定値として扱う。
type RecoveryConfig struct {
	// RecentWindowDays は直近窓の日数。
	RecentWindowDays int
	// BaselineWindowDays は比較基準窓の日数。直近窓より長いこと。
	BaselineWindowDays int
	// RecoveryThresholdPct はこの変化率（%）以上で回復と判定する。
	RecoveryThresholdPct float64
	// DeclineThresholdPct はこの変化率（%）以下で悪化と判定する。負値。
	DeclineThresholdPct float64
}

// DefaultRecoveryConfig はデフォルトの回復判定設定を返す。
// しきい値±10%は暫定の運用初期値であり、環境変数で上書きできる。
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		RecentWindowDays:     3,
		BaselineWindowDays:   14,
		RecoveryThresholdPct: 10,
		DeclineThresholdPct:  -10,
	}
}

// RecoveryTendency は回復傾向の判定結果。
type RecoveryTendency struct {
	Status          string  `json:"status"`
	ChangePct       float64 `json:"changePct"`
	RecentAverage   float64 `json:"recentAverage"`
	BaselineAverage float64 `json:"baselineAverage"`
	Volatility      string  `json:"volatility"`
}

// DetectRecoveryTendency は直近窓と基準窓の感覚拡張スコア平均を比較し、
// 回復傾向を判定する。基準窓は直近窓を除いた期間
// （now-BaselineWindowDays 〜 now-RecentWindowDays）とする。
// どちらかの窓にエントリがない場合はinsufficient_dataを返す。
// エラーは返さない。空入力は定義されたデフォルト経路。
func DetectRecoveryTendency(entries []model.JournalEntry, now time.Time, cfg RecoveryConfig) RecoveryTendency {
	recentCutoff := now.AddDate(0, 0, -cfg.RecentWindowDays)
	baselineCutoff := now.AddDate(0, 0, -cfg.BaselineWindowDays)

	var recentSum, baselineSum float64
	recentCount, baselineCount := 0, 0

	for _, e := range entries {
		if e.CreatedAt.After(now) || e.CreatedAt.Before(baselineCutoff) {
			continue
		}
		score := SensoryExpansionScore(e)
		if e.CreatedAt.After(recentCutoff) {
			recentSum += score
			recentCount++
		} else {
			baselineSum += score
			baselineCount++
		}
	}

	result := RecoveryTendency{
		Status:     RecoveryInsufficientData,
		Volatility: VolatilityLabel(WeeklySensorySeries(entries, now).Data),
	}

	if recentCount == 0 || baselineCount == 0 {
		return result
	}

	recentAvg := recentSum / float64(recentCount)
	baselineAvg := baselineSum / float64(baselineCount)

	// 各エントリのスコアは[1,5]なので基準平均は1以上、ゼロ除算にならない
	changePct := (recentAvg - baselineAvg) / baselineAvg * 100

	result.RecentAverage = recentAvg
	result.BaselineAverage = baselineAvg
	result.ChangePct = changePct

	switch {
	case changePct >= cfg.RecoveryThresholdPct:
		result.Status = RecoveryRecovering
	case changePct <= cfg.DeclineThresholdPct:
		result.Status = RecoveryDeclining
	default:
		result.Status = RecoverySteady
	}

	return result
}
