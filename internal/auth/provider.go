// Package auth はIDプロバイダー連携によるパスワード認証とセッション管理を提供する。
package auth

import (
	"context"
	"errors"
)

// 呼び出し側がハンドリングを分岐するためのプロバイダーエラー分類。
var (
	// ErrInvalidCredentials はプロバイダーが認証情報を拒否したことを表す。
	ErrInvalidCredentials = errors.New("identity provider rejected credentials")
	// ErrProviderUnavailable はプロバイダーに到達できなかったことを表す。
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Credentials はメールアドレスとパスワードの組。
type Credentials struct {
	Email    string
	Password string
}

// ProviderUser はIDプロバイダー側のユーザー情報を表す。
// IDはプロバイダーが発行したものをそのままローカルのユーザーIDとして使う。
type ProviderUser struct {
	ID    string
	Email string
}

// ProviderSession はプロバイダーが発行した認証済みセッション。
type ProviderSession struct {
	User         ProviderUser
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // アクセストークンの有効期間（秒）
}

// IdentityProvider はホスト型IDプロバイダーのインターフェース。
// 実装はエラーをErrInvalidCredentials / ErrProviderUnavailableに
// 分類して返す。それ以外のエラーは上流障害として扱われる。
type IdentityProvider interface {
	// SignUp は新規ユーザーを登録する。
	SignUp(ctx context.Context, creds Credentials) (*ProviderUser, error)
	// SignIn はパスワード認証を行い、プロバイダーセッションを取得する。
	SignIn(ctx context.Context, creds Credentials) (*ProviderSession, error)
	// Refresh はリフレッシュトークンでプロバイダーセッションを更新する。
	Refresh(ctx context.Context, refreshToken string) (*ProviderSession, error)
	// SendPasswordReset はパスワード再設定メールの送信を要求する。
	SendPasswordReset(ctx context.Context, email string) error
	// DeleteUser はプロバイダー側のユーザーを削除する。退会時に使う。
	DeleteUser(ctx context.Context, providerUserID string) error
}
