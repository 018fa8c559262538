// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, journal, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeAuthRejected     = "AUTH_REJECTED"
	ErrCodeLockedOut        = "LOCKED_OUT"
	ErrCodeUpstreamProvider = "UPSTREAM_PROVIDER_ERROR"
	ErrCodeEntryNotFound    = "ENTRY_NOT_FOUND"
	ErrCodeEntryLimit       = "ENTRY_LIMIT"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
)

// NewValidationError はリクエスト内容の検証エラーを生成する。
// detailにはフィールド単位の不備を記述する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", detail),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewAuthRejectedError は認証拒否エラーを生成する。
// アカウントの存在有無を漏らさないよう、理由によらず同一メッセージを返す。
func NewAuthRejectedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthRejected,
		Message:  "Invalid credentials.",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewLockedOutError はログイン試行回数超過によるロックエラーを生成する。
// retryAfterSecondsは残りロック時間（秒、切り上げ）。
func NewLockedOutError(retryAfterSeconds int) *APIError {
	return &APIError{
		Code:     ErrCodeLockedOut,
		Message:  fmt.Sprintf("Too many attempts. Try again in %ds.", retryAfterSeconds),
		Category: "auth",
		Action:   "しばらく待ってから再度ログインしてください。",
	}
}

// NewUpstreamProviderError はIDプロバイダー到達不能エラーを生成する。
// プロバイダー側の詳細はサーバーログのみに記録する。
func NewUpstreamProviderError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamProvider,
		Message:  "認証サービスに接続できませんでした。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewEntryNotFoundError はジャーナルエントリ未検出エラーを生成する。
func NewEntryNotFoundError(entryID string) *APIError {
	return &APIError{
		Code:     ErrCodeEntryNotFound,
		Message:  fmt.Sprintf("指定されたエントリが見つかりません: %s", entryID),
		Category: "journal",
		Action:   "エントリIDを確認してください。",
	}
}

// NewEntryLimitError は1日あたりのエントリ作成上限エラーを生成する。
func NewEntryLimitError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodeEntryLimit,
		Message:  fmt.Sprintf("本日のエントリ作成数が上限（%d件）に達しています。", limit),
		Category: "journal",
		Action:   "明日以降に再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}
