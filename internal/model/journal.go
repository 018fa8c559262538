package model

import "time"

// JournalType はジャーナルの種別を表す閉じたタグ集合。
type JournalType string

const (
	// JournalTypeBody はボディマッピング（身体感覚の記録）。
	JournalTypeBody JournalType = "body"
	// JournalTypeIdentity はアイデンティティ（自己受容の記録）。
	JournalTypeIdentity JournalType = "identity"
	// JournalTypeReframing は認知の再構成（リフレーミング）の記録。
	JournalTypeReframing JournalType = "reframing"
	// JournalTypeEmotion は感情の記録。
	JournalTypeEmotion JournalType = "emotion"
	// JournalTypeGratitude は感謝の記録。
	JournalTypeGratitude JournalType = "gratitude"
	// JournalTypeReflection は振り返りの記録。
	JournalTypeReflection JournalType = "reflection"
)

// ParseJournalType は文字列をJournalTypeに変換する。
// 未知の値は慣例としてbodyにフォールバックする。
func ParseJournalType(s string) JournalType {
	switch JournalType(s) {
	case JournalTypeBody, JournalTypeIdentity, JournalTypeReframing,
		JournalTypeEmotion, JournalTypeGratitude, JournalTypeReflection:
		return JournalType(s)
	default:
		return JournalTypeBody
	}
}

// BodyMapping はジャーナルエントリに付随する自由形式のキー→値マップ。
// スコア計算で意味を持つのは緊張部位キーとmatchingScoreのみで、
// それ以外のキーは保存されるがエンジンからは参照されない。
type BodyMapping map[string]any

// matchingScoreKey はアイデンティティジャーナルの自己一致スコアのキー。
const matchingScoreKey = "matchingScore"

// MatchingScore はbodyMapping内の数値matchingScoreを取り出す。
// JSONデコード経由のfloat64と整数の両方を受け付ける。
// 存在しない、または数値でない場合はok=falseを返す。
func (m BodyMapping) MatchingScore() (float64, bool) {
	v, exists := m[matchingScoreKey]
	if !exists {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// JournalEntry は1件のジャーナル記録を表す。
// 作成後は不変として扱い、スコアエンジンは入力を変更しない。
type JournalEntry struct {
	ID           string
	UserID       string
	JournalType  JournalType
	EmotionLevel int // 1〜5
	BodyMapping  BodyMapping
	Content      string
	CreatedAt    time.Time
}

// EmotionLevelMin とEmotionLevelMax は感情レベルおよび派生スコアの値域。
const (
	EmotionLevelMin = 1
	EmotionLevelMax = 5
)
