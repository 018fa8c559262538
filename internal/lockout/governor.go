// Package lockout はログイン試行のソフトロック（試行回数制限）を提供する。
//
// メールアドレス単位で連続失敗回数を記録し、しきい値に達したら
// 一定時間ロックする。ネットワーク層のレート制限とは独立に動作し、
// IDプロバイダーへの問い合わせ前に必ず参照される。
// ロックはUX上のソフト防御であり、セキュリティ境界ではない。
package lockout

import (
	"strings"
	"time"
)

// Config はロック制御の設定。
type Config struct {
	// Threshold はロックに至る連続失敗回数。
	Threshold int
	// LockDuration はロックの継続時間。
	LockDuration time.Duration
}

// DefaultConfig はデフォルトのロック設定を返す。
// 連続5回の失敗で5分間ロックする。
func DefaultConfig() Config {
	return Config{
		Threshold:    5,
		LockDuration: 5 * time.Minute,
	}
}

// Clock は現在時刻の取得を抽象化する。
// テストでは仮想時計を注入して決定的に検証する。
type Clock func() time.Time

// LockStatus はCheckLockedの結果を表す。
type LockStatus struct {
	// Locked はロック中かどうか。
	Locked bool
	// RetryAfter はロック解除までの残り時間。未ロック時はゼロ。
	RetryAfter time.Duration
}

// RetryAfterSeconds は残りロック時間を秒に切り上げて返す。
// ユーザー向けメッセージがロック解除より早い再試行を案内しないようにする。
func (s LockStatus) RetryAfterSeconds() int {
	if s.RetryAfter <= 0 {
		return 0
	}
	secs := int(s.RetryAfter / time.Second)
	if s.RetryAfter%time.Second > 0 {
		secs++
	}
	return secs
}

// Governor はメールアドレス単位のログイン試行制御を行う。
// 記録の読み書きはStore経由で行い、時刻はClock経由で取得する。
// Get/Put間の競合で失敗回数が過少になる可能性はあるが、
// ログイン試行は低頻度でありソフトロックの性質上許容する。
type Governor struct {
	store  Store
	clock  Clock
	config Config
}

// NewGovernor はGovernorを生成する。
// clockがnilの場合はtime.Nowを使用する。
// configのゼロ値フィールドはDefaultConfigで補完する。
func NewGovernor(store Store, clock Clock, config Config) *Governor {
	if clock == nil {
		clock = time.Now
	}
	def := DefaultConfig()
	if config.Threshold <= 0 {
		config.Threshold = def.Threshold
	}
	if config.LockDuration <= 0 {
		config.LockDuration = def.LockDuration
	}
	return &Governor{
		store:  store,
		clock:  clock,
		config: config,
	}
}

// RecordFailure はログイン失敗を記録する。
// 失敗回数がしきい値に達した時点でロック失効時刻を設定する。
// ロック中の追加失敗はカウンタのみ進め、ロック時間は延長しない
// （延長するか否かはプロダクト判断として現状維持）。
func (g *Governor) RecordFailure(email string) {
	key := normalizeKey(email)

	rec, _ := g.store.Get(key)
	rec.Attempts++

	if rec.Attempts >= g.config.Threshold && rec.LockedUntil.IsZero() {
		rec.LockedUntil = g.clock().Add(g.config.LockDuration)
	}

	g.store.Put(key, rec)
}

// CheckLocked は指定メールアドレスのロック状態を返す。
// ロックが失効している場合は記録を削除し、未ロックとして扱う。
// 次の失敗からは新しいカウント窓が始まる。
func (g *Governor) CheckLocked(email string) LockStatus {
	key := normalizeKey(email)

	rec, ok := g.store.Get(key)
	if !ok || rec.LockedUntil.IsZero() {
		return LockStatus{}
	}

	now := g.clock()
	if !now.Before(rec.LockedUntil) {
		// 失効したロックは存在しないものとして扱う
		g.store.Delete(key)
		return LockStatus{}
	}

	return LockStatus{
		Locked:     true,
		RetryAfter: rec.LockedUntil.Sub(now),
	}
}

// ClearFailure は指定メールアドレスの記録を削除する。
// ログイン成功時に1回だけ呼び出される。
func (g *Governor) ClearFailure(email string) {
	g.store.Delete(normalizeKey(email))
}

// normalizeKey はメールアドレスを追跡キーに正規化する。
// 形式の検証はHTTP層の責務であり、ここでは大文字小文字の
// 正規化と前後空白の除去のみを行う。
func normalizeKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
