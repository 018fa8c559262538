package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// SupabaseConfig はSupabase GoTrueプロバイダーの設定。
type SupabaseConfig struct {
	// URL はSupabaseプロジェクトのURL。
	URL string
	// ServiceKey はサーバーサイド用のservice roleキー。
	// 退会時のユーザー削除（admin API）に必要。
	ServiceKey string
}

// SupabaseProvider はSupabase GoTrueによるパスワード認証を提供する。
type SupabaseProvider struct {
	client *supabase.Client
}

// NewSupabaseProvider はSupabaseProviderを生成する。
func NewSupabaseProvider(config SupabaseConfig) (*SupabaseProvider, error) {
	client, err := supabase.NewClient(config.URL, config.ServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseProvider{client: client}, nil
}

// SignUp は新規ユーザーをGoTrueに登録する。
// GoTrueクライアントはcontextを取らないため、ctxはインターフェース
// 互換のためのみ受け取る。
func (p *SupabaseProvider) SignUp(_ context.Context, creds Credentials) (*ProviderUser, error) {
	resp, err := p.client.Auth.Signup(types.SignupRequest{
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}

	return &ProviderUser{
		ID:    resp.ID.String(),
		Email: resp.Email,
	}, nil
}

// SignIn はpasswordグラントでトークンを取得する。
func (p *SupabaseProvider) SignIn(_ context.Context, creds Credentials) (*ProviderSession, error) {
	resp, err := p.client.Auth.Token(types.TokenRequest{
		GrantType: "password",
		Email:     creds.Email,
		Password:  creds.Password,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}

	return providerSessionFromToken(resp), nil
}

// Refresh はrefresh_tokenグラントでトークンを更新する。
func (p *SupabaseProvider) Refresh(_ context.Context, refreshToken string) (*ProviderSession, error) {
	resp, err := p.client.Auth.Token(types.TokenRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}

	return providerSessionFromToken(resp), nil
}

// SendPasswordReset はパスワード再設定メールの送信を要求する。
func (p *SupabaseProvider) SendPasswordReset(_ context.Context, email string) error {
	err := p.client.Auth.Recover(types.RecoverRequest{Email: email})
	if err != nil {
		return classifyProviderError(err)
	}
	return nil
}

// DeleteUser はGoTrue側のユーザーをadmin APIで削除する。
func (p *SupabaseProvider) DeleteUser(_ context.Context, providerUserID string) error {
	uid, err := uuid.Parse(providerUserID)
	if err != nil {
		return fmt.Errorf("invalid provider user ID %q: %w", providerUserID, err)
	}

	if err := p.client.Auth.AdminDeleteUser(types.AdminDeleteUserRequest{UserID: uid}); err != nil {
		return classifyProviderError(err)
	}
	return nil
}

// providerSessionFromToken はGoTrueのトークンレスポンスを変換する。
func providerSessionFromToken(resp *types.TokenResponse) *ProviderSession {
	return &ProviderSession{
		User: ProviderUser{
			ID:    resp.User.ID.String(),
			Email: resp.User.Email,
		},
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}
}

// classifyProviderError はGoTrueクライアントのエラーを分類する。
// ネットワーク到達不能はErrProviderUnavailable、4xx応答は
// ErrInvalidCredentialsに対応付ける。クライアントは非2xx応答を
// "response status code NNN" というメッセージで報告する。
func classifyProviderError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "response status code 4"):
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	case strings.Contains(msg, "response status code 5"):
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return fmt.Errorf("identity provider error: %w", err)
}

// compile-time interface check
var _ IdentityProvider = (*SupabaseProvider)(nil)
