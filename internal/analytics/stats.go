package analytics

import (
	"time"

	"github.com/hitoshi/kokorolog/internal/model"
)

// neutralScore はエントリのない日に埋める中立デフォルト値。
// チャート系列が常にラベルごとに1点を持つようにするための
// 文書化されたフォールバックであり、計算結果ではない。
const neutralScore = 3.0

// 集計の時間窓（日数）。
const (
	weeklyWindowDays  = 7
	monthlyWindowDays = 30
)

// トレンド方向の分類。
const (
	TrendRising    = "rising"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// 波の活動度（母分散）の分類。しきい値は固定定数であり設定可能にしない。
const (
	VolatilityActive   = "active"
	VolatilityModerate = "moderate"
	VolatilityStable   = "stable"

	volatilityActiveThreshold   = 0.5
	volatilityModerateThreshold = 0.2
)

// EmotionStats はユーザーの感情記録の集計サマリー。
type EmotionStats struct {
	AverageEmotion float64 `json:"averageEmotion"`
	TotalEntries   int     `json:"totalEntries"`
	WeeklyAverage  float64 `json:"weeklyAverage"`
	MonthlyStreak  int     `json:"monthlyStreak"`
}

// ChartSeries はチャート描画用の系列。
// data[i]とlabels[i]の位置対応は厳密な不変条件。
type ChartSeries struct {
	Data   []float64 `json:"data"`
	Labels []string  `json:"labels"`
}

// GetEmotionStats はエントリ一覧から感情統計を計算する。
// 空入力の場合はすべてゼロのデフォルト値を返す（ゼロ除算は発生させない）。
// 週平均は基準時刻から遡る7日間のエントリの感情レベル平均。
// 対象期間にエントリがない場合の週平均は0。
func GetEmotionStats(entries []model.JournalEntry, now time.Time) EmotionStats {
	if len(entries) == 0 {
		return EmotionStats{}
	}

	var total float64
	var weekTotal float64
	weekCount := 0
	weekCutoff := now.AddDate(0, 0, -weeklyWindowDays)

	for _, e := range entries {
		total += float64(e.EmotionLevel)
		if !e.CreatedAt.Before(weekCutoff) && !e.CreatedAt.After(now) {
			weekTotal += float64(e.EmotionLevel)
			weekCount++
		}
	}

	weeklyAverage := 0.0
	if weekCount > 0 {
		weeklyAverage = weekTotal / float64(weekCount)
	}

	return EmotionStats{
		AverageEmotion: total / float64(len(entries)),
		TotalEntries:   len(entries),
		WeeklyAverage:  weeklyAverage,
		MonthlyStreak:  MonthlyStreak(entries, now),
	}
}

// MonthlyStreak は基準時刻から遡る30日間に、1件以上のエントリがある
// 暦日の数（エントリ件数ではない）を返す。
// 日付の区切りは基準時刻のタイムゾーンで判定する。
func MonthlyStreak(entries []model.JournalEntry, now time.Time) int {
	loc := now.Location()
	cutoff := now.AddDate(0, 0, -monthlyWindowDays)

	days := make(map[string]struct{})
	for _, e := range entries {
		if e.CreatedAt.Before(cutoff) || e.CreatedAt.After(now) {
			continue
		}
		days[e.CreatedAt.In(loc).Format("2006-01-02")] = struct{}{}
	}

	return len(days)
}

// WeeklySensorySeries は基準時刻から遡る7暦日の感覚拡張スコア系列を返す。
// 同日の複数エントリは先に平均し、エントリのない日は中立値3で埋める。
// ラベルは各暦日の曜日（Mon..Sun形式の3文字）で、
// 系列は常にちょうど7点になる。
func WeeklySensorySeries(entries []model.JournalEntry, now time.Time) ChartSeries {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	labels := make([]string, weeklyWindowDays)
	indexByDay := make(map[string]int, weeklyWindowDays)
	for i := 0; i < weeklyWindowDays; i++ {
		day := today.AddDate(0, 0, i-(weeklyWindowDays-1))
		labels[i] = day.Weekday().String()[:3]
		indexByDay[day.Format("2006-01-02")] = i
	}

	sums := make([]float64, weeklyWindowDays)
	counts := make([]int, weeklyWindowDays)
	for _, e := range entries {
		key := e.CreatedAt.In(loc).Format("2006-01-02")
		i, ok := indexByDay[key]
		if !ok {
			continue
		}
		sums[i] += SensoryExpansionScore(e)
		counts[i]++
	}

	data := make([]float64, weeklyWindowDays)
	for i := range data {
		if counts[i] == 0 {
			data[i] = neutralScore
			continue
		}
		data[i] = sums[i] / float64(counts[i])
	}

	return ChartSeries{Data: data, Labels: labels}
}

// BestDayIndex は系列の最大値のインデックスを返す。
// 同値の場合は先頭側（小さいインデックス）を返す。この同値解決は
// 再現性のため厳密に維持する。空系列の場合は-1を返す。
func BestDayIndex(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	best := 0
	for i, v := range data {
		if v > data[best] {
			best = i
		}
	}
	return best
}

// TrendDirection は7点系列の前半3点と後半3点の平均を比較し、
// トレンド方向を返す。後半が大きければrising、小さければdeclining、
// 同値ならstable。6点未満の系列は比較不能としてstableを返す。
func TrendDirection(data []float64) string {
	if len(data) < 6 {
		return TrendStable
	}

	firstAvg := mean(data[:3])
	secondAvg := mean(data[len(data)-3:])

	switch {
	case secondAvg > firstAvg:
		return TrendRising
	case secondAvg < firstAvg:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// VolatilityLabel は系列の母分散から波の活動度を分類する。
// 分散が0.5超でactive、0.2超でmoderate、それ以外はstable。
func VolatilityLabel(data []float64) string {
	v := populationVariance(data)
	switch {
	case v > volatilityActiveThreshold:
		return VolatilityActive
	case v > volatilityModerateThreshold:
		return VolatilityModerate
	default:
		return VolatilityStable
	}
}

// mean は平均を返す。空スライスは0。
func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// populationVariance は母分散を返す。空スライスは0。
func populationVariance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m := mean(data)
	var sum float64
	for _, v := range data {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(data))
}
