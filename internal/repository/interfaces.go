// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/kokorolog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Upsert はユーザーを作成または更新する。
	// IDプロバイダー側の認証成功時にローカルレコードを同期するために使う。
	Upsert(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、journal_entriesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// UpdateRefreshToken はセッションのプロバイダー側リフレッシュトークンを更新する。
	UpdateRefreshToken(ctx context.Context, id, refreshToken string) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// JournalRepository はジャーナルエントリの永続化インターフェース。
// エントリは作成後不変で、更新操作は提供しない。
type JournalRepository interface {
	// Create はエントリを作成する。
	Create(ctx context.Context, entry *model.JournalEntry) error

	// FindByID は指定IDのエントリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.JournalEntry, error)

	// ListByUser はユーザーのエントリをcreated_at降順で返す。
	// sinceがゼロ値でない場合はcreated_at >= sinceのエントリに絞り込む。
	ListByUser(ctx context.Context, userID string, since time.Time) ([]model.JournalEntry, error)

	// CountByUserSince はcreated_at >= sinceのエントリ数を返す。
	// 1日あたりの作成上限の判定に使う。
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error)

	// Delete は指定IDのエントリを削除する。
	Delete(ctx context.Context, id string) error

	// DeleteByUserID はユーザーの全エントリを削除する。退会時に使う。
	DeleteByUserID(ctx context.Context, userID string) error
}
