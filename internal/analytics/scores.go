// Package analytics はジャーナルエントリから派生ウェルネススコアを計算する。
//
// すべての関数は純粋で、同一の入力と基準時刻に対して常に同一の結果を返す。
// 入力エントリは変更せず、読み取り専用の集計のみを生成する。
// 空入力はエラーではなく、文書化された中立デフォルト値を返す。
package analytics

import (
	"strings"

	"github.com/hitoshi/kokorolog/internal/model"
)

// tensionAreas はリラックススコアの減点対象となる緊張部位の語彙。
var tensionAreas = []string{"head", "shoulders", "chest", "stomach"}

// 合成スコアの重み。
const (
	relaxationWeight     = 0.4
	selfAcceptanceWeight = 0.3
	reframingWeight      = 0.3
)

// contentBonusLength はリフレーミングの加点対象となる本文の最小文字数。
const contentBonusLength = 100

// clampScore はスコアを[1,5]に収める。
func clampScore(v float64) float64 {
	if v < model.EmotionLevelMin {
		return model.EmotionLevelMin
	}
	if v > model.EmotionLevelMax {
		return model.EmotionLevelMax
	}
	return v
}

// RelaxationScore はリラックススコアを計算する。
// 感情レベルを基準に、ボディマッピングのキーが緊張部位語彙に
// 部分一致（大文字小文字を無視）するごとに0.5減点し、[1,5]に収める。
// ボディマッピングが空の場合は減点なしで感情レベルをそのまま返す。
func RelaxationScore(e model.JournalEntry) float64 {
	base := float64(e.EmotionLevel)

	tense := 0
	for key := range e.BodyMapping {
		lower := strings.ToLower(key)
		for _, area := range tensionAreas {
			if strings.Contains(lower, area) {
				tense++
				break
			}
		}
	}

	return clampScore(base - 0.5*float64(tense))
}

// SelfAcceptanceScore は自己受容スコアを計算する。
// 基準値3から開始し、identityジャーナルは4に引き上げる。
// identityジャーナルにmatchingScoreがある場合は基準値を置き換える（加算ではない）。
// その後に感情レベル調整（4以上: +0.5、2以下: -0.5）を適用する。
// 種別とmatchingScoreの解決が先、感情レベル調整が後という順序は固定。
func SelfAcceptanceScore(e model.JournalEntry) float64 {
	base := 3.0

	if e.JournalType == model.JournalTypeIdentity {
		base = 4.0
		if score, ok := e.BodyMapping.MatchingScore(); ok {
			base = score
		}
	}

	switch {
	case e.EmotionLevel >= 4:
		base += 0.5
	case e.EmotionLevel <= 2:
		base -= 0.5
	}

	return clampScore(base)
}

// ReframingSuccessRate はリフレーミング成功度を計算する。
// 基準値3。reframingジャーナルは感情レベルを基準値とし、
// 本文が100文字を超える場合は0.5加点する。
// ジャーナル種別とは独立に、ボディマッピングのキーが2個を超える場合は
// 0.3加点する（種別加点と重複可）。上限は5。
func ReframingSuccessRate(e model.JournalEntry) float64 {
	base := 3.0

	if e.JournalType == model.JournalTypeReframing {
		base = float64(e.EmotionLevel)
		if len(e.Content) > contentBonusLength {
			base += 0.5
		}
	}

	if len(e.BodyMapping) > 2 {
		base += 0.3
	}

	return clampScore(base)
}

// SensoryExpansionScore は感覚拡張スコア（合成スコア）を計算する。
// 各成分が[1,5]に収まっているため、重み付き和も追加のクランプなしで
// [1,5]に収まる。
func SensoryExpansionScore(e model.JournalEntry) float64 {
	return relaxationWeight*RelaxationScore(e) +
		selfAcceptanceWeight*SelfAcceptanceScore(e) +
		reframingWeight*ReframingSuccessRate(e)
}
