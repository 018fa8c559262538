// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/kokorolog/internal/model"
	"github.com/hitoshi/kokorolog/internal/repository"
)

// JournalDeleter はジャーナルエントリの一括削除インターフェース。
type JournalDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProviderUserDeleter はIDプロバイダー側のユーザー削除インターフェース。
type ProviderUserDeleter interface {
	DeleteUser(ctx context.Context, providerUserID string) error
}

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo        repository.UserRepository
	sessionRepo     repository.SessionRepository
	journalDeleter  JournalDeleter
	providerDeleter ProviderUserDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	journalDeleter JournalDeleter,
	providerDeleter ProviderUserDeleter,
) *Service {
	return &Service{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		journalDeleter:  journalDeleter,
		providerDeleter: providerDeleter,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: journal_entries → sessions → user。
// IDプロバイダー側の削除はベストエフォートで行い、失敗しても
// ローカル削除は完了させる（ログに記録して手動対応に回す）。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. ジャーナルエントリを削除
	if s.journalDeleter != nil {
		if err := s.journalDeleter.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("ジャーナルエントリの削除に失敗しました: %w", err)
		}
	}

	// 2. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 3. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	// 4. プロバイダー側のユーザーを削除（ベストエフォート）
	if s.providerDeleter != nil {
		if err := s.providerDeleter.DeleteUser(ctx, userID); err != nil {
			slog.Error("IDプロバイダー側のユーザー削除に失敗しました",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
