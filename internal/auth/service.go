package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/kokorolog/internal/lockout"
	"github.com/hitoshi/kokorolog/internal/metrics"
	"github.com/hitoshi/kokorolog/internal/model"
	"github.com/hitoshi/kokorolog/internal/repository"
)

// minPasswordLength はサインアップ時のパスワード最小文字数。
const minPasswordLength = 8

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// ログイン試行はgovernor（メールアドレス単位のソフトロック）を
// 必ず通過してからIDプロバイダーに問い合わせる。
type Service struct {
	provider    IdentityProvider
	governor    *lockout.Governor
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	collector   metrics.MetricsCollector
	config      ServiceConfig
	clock       func() time.Time
}

// NewService はServiceを生成する。
// collectorはnil可。clockがnilの場合はtime.Nowを使用する。
func NewService(
	provider IdentityProvider,
	governor *lockout.Governor,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	collector metrics.MetricsCollector,
	config ServiceConfig,
	clock func() time.Time,
) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		provider:    provider,
		governor:    governor,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		collector:   collector,
		config:      config,
		clock:       clock,
	}
}

// Signup は新規ユーザーをIDプロバイダーに登録し、ローカルレコードを同期する。
// ユーザーIDはプロバイダーが発行したものをそのまま使う。
func (s *Service) Signup(ctx context.Context, email, password string) (*model.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	provUser, err := s.provider.SignUp(ctx, Credentials{Email: email, Password: password})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			// 登録済みメール等。存在有無を漏らさない汎用メッセージにする
			return nil, model.NewValidationError("このメールアドレスでは登録できません")
		}
		slog.Error("signup failed at identity provider", slog.String("error", err.Error()))
		return nil, model.NewUpstreamProviderError()
	}

	user, err := s.syncUser(ctx, provUser)
	if err != nil {
		return nil, err
	}

	slog.Info("new user signed up", slog.String("user_id", user.ID))
	return user, nil
}

// Login はパスワード認証を行い、セッションを発行する。
// 入力不備はガバナーに到達する前の検証エラーとして返す。
// ロック中はプロバイダーに問い合わせず即座に拒否する。
// 認証情報の拒否は失敗としてカウントし、しきい値到達でロックする。
// プロバイダー到達不能は失敗にカウントしない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if email == "" || password == "" {
		return nil, model.NewValidationError("メールアドレスとパスワードを入力してください")
	}

	if status := s.governor.CheckLocked(email); status.Locked {
		if s.collector != nil {
			s.collector.RecordLockedRejection()
		}
		return nil, model.NewLockedOutError(status.RetryAfterSeconds())
	}

	provSession, err := s.provider.SignIn(ctx, Credentials{Email: email, Password: password})
	if err != nil {
		return nil, s.handleSignInError(email, err)
	}

	s.governor.ClearFailure(email)

	user, err := s.syncUser(ctx, &provSession.User)
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, user.ID, provSession.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordLoginSuccess()
	}
	slog.Info("user logged in", slog.String("user_id", user.ID))

	return session, nil
}

// handleSignInError はプロバイダーのSignInエラーをAPIエラーに変換する。
func (s *Service) handleSignInError(email string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		s.governor.RecordFailure(email)
		if s.collector != nil {
			s.collector.RecordLoginFailure()
		}

		// この失敗でしきい値に達した場合は、この応答からロックを返す
		if status := s.governor.CheckLocked(email); status.Locked {
			if s.collector != nil {
				s.collector.RecordLockout()
			}
			slog.Warn("login lockout triggered",
				slog.Int("retry_after_seconds", status.RetryAfterSeconds()),
			)
			return model.NewLockedOutError(status.RetryAfterSeconds())
		}

		return model.NewAuthRejectedError()

	case errors.Is(err, ErrProviderUnavailable):
		slog.Error("identity provider unreachable", slog.String("error", err.Error()))
		return model.NewUpstreamProviderError()

	default:
		slog.Error("identity provider error", slog.String("error", err.Error()))
		return model.NewUpstreamProviderError()
	}
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return model.NewUnauthorizedError()
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// RefreshSession はプロバイダー側トークンをローテーションする。
// プロバイダーがリフレッシュを拒否した場合（失効・取り消し）は
// ローカルセッションも破棄する。
func (s *Service) RefreshSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	provSession, err := s.provider.Refresh(ctx, session.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if delErr := s.sessionRepo.DeleteByID(ctx, session.ID); delErr != nil {
				slog.Error("failed to delete revoked session", slog.String("error", delErr.Error()))
			}
			return nil, model.NewUnauthorizedError()
		}
		slog.Error("token refresh failed", slog.String("error", err.Error()))
		return nil, model.NewUpstreamProviderError()
	}

	if err := s.sessionRepo.UpdateRefreshToken(ctx, session.ID, provSession.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to update refresh token: %w", err)
	}
	session.RefreshToken = provSession.RefreshToken

	return session, nil
}

// RequestPasswordReset はパスワード再設定メールの送信を要求する。
// アカウントの存在有無を漏らさないため、未登録メール等の拒否は
// 成功として扱い、ログにのみ記録する。
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if !strings.Contains(email, "@") {
		return model.NewValidationError("メールアドレスの形式が不正です")
	}

	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			slog.Error("identity provider unreachable", slog.String("error", err.Error()))
			return model.NewUpstreamProviderError()
		}
		slog.Info("password reset request rejected by provider", slog.String("error", err.Error()))
	}

	return nil
}

// syncUser はプロバイダーのユーザー情報をローカルレコードに同期する。
func (s *Service) syncUser(ctx context.Context, provUser *ProviderUser) (*model.User, error) {
	now := s.clock()
	user := &model.User{
		ID:        provUser.ID,
		Email:     provUser.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID, refreshToken string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.clock()
	session := &model.Session{
		ID:           sessionID,
		UserID:       userID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt:    now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// validateCredentials はサインアップ入力の形式を検証する。
func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return model.NewValidationError("メールアドレスの形式が不正です")
	}
	if len(password) < minPasswordLength {
		return model.NewValidationError(
			fmt.Sprintf("パスワードは%d文字以上にしてください", minPasswordLength))
	}
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
