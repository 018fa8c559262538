package lockout

import (
	"sync"
	"time"
)

// FailureRecord はメールアドレスごとの連続ログイン失敗の記録。
type FailureRecord struct {
	// Attempts は直近の成功またはロック失効以降の連続失敗回数。
	Attempts int
	// LockedUntil はロック失効時刻。ゼロ値は未ロックを表す。
	LockedUntil time.Time
}

// Store は失敗記録の保存先を抽象化する。
// プロセス内メモリの他、マルチプロセス構成ではTTL付きKVSに
// 差し替えられるよう、呼び出し側はこのインターフェースのみに依存する。
type Store interface {
	// Get は指定キーの記録を返す。存在しない場合はok=false。
	Get(key string) (FailureRecord, bool)
	// Put は指定キーの記録を保存する。
	Put(key string, rec FailureRecord)
	// Delete は指定キーの記録を削除する。存在しなくてもエラーにしない。
	Delete(key string)
}

// MemoryStore はプロセス内メモリのStore実装。
// プロセス再起動で記録は失われる（ドキュメント化された制限）。
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]FailureRecord
}

// NewMemoryStore は新しいMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]FailureRecord),
	}
}

// Get は指定キーの記録を返す。
func (s *MemoryStore) Get(key string) (FailureRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok
}

// Put は指定キーの記録を保存する。
func (s *MemoryStore) Put(key string, rec FailureRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
}

// Delete は指定キーの記録を削除する。
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// Len は現在の記録数を返す。テストおよびメトリクス用。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
