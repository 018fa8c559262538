package handler

import (
	"context"

	"github.com/hitoshi/kokorolog/internal/analytics"
	"github.com/hitoshi/kokorolog/internal/auth"
	"github.com/hitoshi/kokorolog/internal/journal"
	"github.com/hitoshi/kokorolog/internal/user"
)

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// Withdraw はユーザーの退会処理を実行する。
func (a *UserServiceAdapter) Withdraw(ctx context.Context, userID string) error {
	return a.svc.Withdraw(ctx, userID)
}

// --- compile-time interface checks ---
// ドメインサービスはハンドラーインターフェースを直接満たす。

var _ AuthServiceInterface = (*auth.Service)(nil)
var _ JournalServiceInterface = (*journal.Service)(nil)
var _ AnalyticsServiceInterface = (*analytics.Service)(nil)
var _ UserServiceInterface = (*UserServiceAdapter)(nil)
