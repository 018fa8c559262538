package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/kokorolog/internal/lockout"
	"github.com/hitoshi/kokorolog/internal/model"
	"github.com/hitoshi/kokorolog/internal/repository"
)

// --- モック ---

type mockProvider struct {
	signUpFunc            func(ctx context.Context, creds Credentials) (*ProviderUser, error)
	signInFunc            func(ctx context.Context, creds Credentials) (*ProviderSession, error)
	refreshFunc           func(ctx context.Context, refreshToken string) (*ProviderSession, error)
	sendPasswordResetFunc func(ctx context.Context, email string) error
	deleteUserFunc        func(ctx context.Context, providerUserID string) error
}

func (m *mockProvider) SignUp(ctx context.Context, creds Credentials) (*ProviderUser, error) {
	return m.signUpFunc(ctx, creds)
}

func (m *mockProvider) SignIn(ctx context.Context, creds Credentials) (*ProviderSession, error) {
	return m.signInFunc(ctx, creds)
}

func (m *mockProvider) Refresh(ctx context.Context, refreshToken string) (*ProviderSession, error) {
	return m.refreshFunc(ctx, refreshToken)
}

func (m *mockProvider) SendPasswordReset(ctx context.Context, email string) error {
	return m.sendPasswordResetFunc(ctx, email)
}

func (m *mockProvider) DeleteUser(ctx context.Context, providerUserID string) error {
	return m.deleteUserFunc(ctx, providerUserID)
}

var _ IdentityProvider = (*mockProvider)(nil)

type mockUserRepo struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.User, error)
	upsertFunc     func(ctx context.Context, user *model.User) error
	deleteByIDFunc func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Upsert(ctx context.Context, user *model.User) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFunc != nil {
		return m.deleteByIDFunc(ctx, id)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockSessionRepo struct {
	createFunc             func(ctx context.Context, session *model.Session) error
	findByIDFunc           func(ctx context.Context, id string) (*model.Session, error)
	updateRefreshTokenFunc func(ctx context.Context, id, refreshToken string) error
	deleteByIDFunc         func(ctx context.Context, id string) error
	deleteByUserIDFunc     func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) UpdateRefreshToken(ctx context.Context, id, refreshToken string) error {
	if m.updateRefreshTokenFunc != nil {
		return m.updateRefreshTokenFunc(ctx, id, refreshToken)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFunc != nil {
		return m.deleteByIDFunc(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFunc != nil {
		return m.deleteByUserIDFunc(ctx, userID)
	}
	return nil
}

var _ repository.SessionRepository = (*mockSessionRepo)(nil)

// --- テストヘルパー ---

var authTestNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

func newTestService(provider IdentityProvider, userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *Service {
	governor := lockout.NewGovernor(
		lockout.NewMemoryStore(),
		func() time.Time { return authTestNow },
		lockout.DefaultConfig(),
	)
	return NewService(provider, governor, userRepo, sessionRepo, nil,
		ServiceConfig{SessionMaxAge: 3600},
		func() time.Time { return authTestNow },
	)
}

func okProvider() *mockProvider {
	return &mockProvider{
		signInFunc: func(ctx context.Context, creds Credentials) (*ProviderSession, error) {
			return &ProviderSession{
				User:         ProviderUser{ID: "provider-user-1", Email: creds.Email},
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
				ExpiresIn:    3600,
			}, nil
		},
	}
}

func rejectingProvider() *mockProvider {
	return &mockProvider{
		signInFunc: func(ctx context.Context, creds Credentials) (*ProviderSession, error) {
			return nil, fmt.Errorf("%w: response status code 400", ErrInvalidCredentials)
		},
	}
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *model.APIError: %v", err)
	}
	return apiErr.Code
}

// --- Login ---

// TestLogin_Success はログイン成功でセッションが発行され、
// プロバイダーIDのユーザーがupsertされることをテストする。
func TestLogin_Success(t *testing.T) {
	var upserted *model.User
	var created *model.Session

	userRepo := &mockUserRepo{
		upsertFunc: func(ctx context.Context, user *model.User) error {
			upserted = user
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFunc: func(ctx context.Context, session *model.Session) error {
			created = session
			return nil
		},
	}
	svc := newTestService(okProvider(), userRepo, sessionRepo)

	session, err := svc.Login(context.Background(), "user@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if upserted == nil || upserted.ID != "provider-user-1" {
		t.Errorf("upserted user = %+v, want ID provider-user-1", upserted)
	}
	if created == nil {
		t.Fatal("session was not persisted")
	}
	if session.UserID != "provider-user-1" {
		t.Errorf("session.UserID = %q, want provider-user-1", session.UserID)
	}
	if session.RefreshToken != "refresh-token" {
		t.Errorf("session.RefreshToken = %q, want refresh-token", session.RefreshToken)
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(session.ID))
	}
	wantExpiry := authTestNow.Add(time.Hour)
	if !session.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("session.ExpiresAt = %v, want %v", session.ExpiresAt, wantExpiry)
	}
}

// TestLogin_InvalidCredentials は認証拒否でAUTH_REJECTEDが返り、
// プロバイダーの詳細がメッセージに漏れないことをテストする。
func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newTestService(rejectingProvider(), &mockUserRepo{}, &mockSessionRepo{})

	_, err := svc.Login(context.Background(), "user@example.com", "wrong")
	if code := apiErrorCode(t, err); code != model.ErrCodeAuthRejected {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeAuthRejected)
	}

	var apiErr *model.APIError
	errors.As(err, &apiErr)
	if apiErr.Message != "Invalid credentials." {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Invalid credentials.")
	}
}

// TestLogin_MissingCredentials_ReturnsValidationError は入力不備が
// ガバナーにもプロバイダーにも到達せず、検証エラーとして返ることをテストする。
func TestLogin_MissingCredentials_ReturnsValidationError(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"メール未入力", "", "password123"},
		{"パスワード未入力", "user@example.com", ""},
		{"両方未入力", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{
				signInFunc: func(ctx context.Context, creds Credentials) (*ProviderSession, error) {
					t.Fatal("SignIn should not be called for missing credentials")
					return nil, nil
				},
			}
			svc := newTestService(provider, &mockUserRepo{}, &mockSessionRepo{})

			_, err := svc.Login(context.Background(), tt.email, tt.password)
			if code := apiErrorCode(t, err); code != model.ErrCodeValidation {
				t.Errorf("error code = %q, want %q", code, model.ErrCodeValidation)
			}
		})
	}
}

// TestLogin_LockoutAfterThreshold は5回目の失敗からLOCKED_OUTが返り、
// ロック中はプロバイダーに問い合わせないことをテストする。
func TestLogin_LockoutAfterThreshold(t *testing.T) {
	signInCalls := 0
	provider := &mockProvider{
		signInFunc: func(ctx context.Context, creds Credentials) (*ProviderSession, error) {
			signInCalls++
			return nil, fmt.Errorf("%w: response status code 400", ErrInvalidCredentials)
		},
	}
	svc := newTestService(provider, &mockUserRepo{}, &mockSessionRepo{})

	// 1〜4回目はAUTH_REJECTED
	for i := 0; i < 4; i++ {
		_, err := svc.Login(context.Background(), "user@example.com", "wrong")
		if code := apiErrorCode(t, err); code != model.ErrCodeAuthRejected {
			t.Fatalf("attempt %d: error code = %q, want %q", i+1, code, model.ErrCodeAuthRejected)
		}
	}

	// 5回目の失敗でロックが発生し、この応答からLOCKED_OUT
	_, err := svc.Login(context.Background(), "user@example.com", "wrong")
	if code := apiErrorCode(t, err); code != model.ErrCodeLockedOut {
		t.Fatalf("attempt 5: error code = %q, want %q", code, model.ErrCodeLockedOut)
	}

	var apiErr *model.APIError
	errors.As(err, &apiErr)
	if apiErr.Message != "Too many attempts. Try again in 300s." {
		t.Errorf("Message = %q, want lockout message with 300s", apiErr.Message)
	}

	// ロック中の試行はプロバイダーに到達しない
	before := signInCalls
	_, err = svc.Login(context.Background(), "user@example.com", "correct-now")
	if code := apiErrorCode(t, err); code != model.ErrCodeLockedOut {
		t.Errorf("locked attempt: error code = %q, want %q", code, model.ErrCodeLockedOut)
	}
	if signInCalls != before {
		t.Errorf("provider was called during lock: %d calls", signInCalls-before)
	}
}

// TestLogin_EmailCaseInsensitiveLock は大文字小文字違いのメールが
// 同一のロック対象として扱われることをテストする。
func TestLogin_EmailCaseInsensitiveLock(t *testing.T) {
	svc := newTestService(rejectingProvider(), &mockUserRepo{}, &mockSessionRepo{})

	for i := 0; i < 5; i++ {
		svc.Login(context.Background(), "User@Example.com", "wrong")
	}

	_, err := svc.Login(context.Background(), "user@example.com", "wrong")
	if code := apiErrorCode(t, err); code != model.ErrCodeLockedOut {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeLockedOut)
	}
}

// TestLogin_SuccessClearsFailures は成功ログインで失敗カウントが
// リセットされることをテストする。
func TestLogin_SuccessClearsFailures(t *testing.T) {
	failing := true
	provider := &mockProvider{
		signInFunc: func(ctx context.Context, creds Credentials) (*ProviderSession, error) {
			if failing {
				return nil, fmt.Errorf("%w: response status code 400", ErrInvalidCredentials)
			}
			return &ProviderSession{
				User:         ProviderUser{ID: "provider-user-1", Email: creds.Email},
				RefreshToken: "refresh-token",
			}, nil
		},
	}
	svc := newTestService(provider, &mockUserRepo{}, &mockSessionRepo{})

	for i := 0; i < 4; i++ {
		svc.Login(context.Background(), "user@example.com", "wrong")
	}

	failing = false
	if _, err := svc.Login(context.Background(), "user@example.com", "correct"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	// カウントがリセットされたので、次の失敗は1回目として扱われる
	failing = true
	_, err := svc.Login(context.Background(), "user@example.com", "wrong")
	if code := apiErrorCode(t, err); code != model.ErrCodeAuthRejected {
		t.Errorf("error code = %q, want %q (counter must be reset)", code, model.ErrCodeAuthRejected)
	}
}

// TestLogin_ProviderUnavailable はプロバイダー到達不能で
// UPSTREAM_PROVIDER_ERRORが返り、失敗にカウントされないことをテストする。
func TestLogin_ProviderUnavailable(t *testing.T) {
	unavailable := &mockProvider{
		signInFunc: func(ctx context.Context, creds Credentials) (*ProviderSession, error) {
			return nil, fmt.Errorf("%w: dial tcp: connection refused", ErrProviderUnavailable)
		},
	}
	svc := newTestService(unavailable, &mockUserRepo{}, &mockSessionRepo{})

	for i := 0; i < 10; i++ {
		_, err := svc.Login(context.Background(), "user@example.com", "password123")
		if code := apiErrorCode(t, err); code != model.ErrCodeUpstreamProvider {
			t.Fatalf("attempt %d: error code = %q, want %q", i+1, code, model.ErrCodeUpstreamProvider)
		}
	}
}

// --- Signup ---

// TestSignup_Success はサインアップ成功でローカルレコードが
// 同期されることをテストする。
func TestSignup_Success(t *testing.T) {
	provider := &mockProvider{
		signUpFunc: func(ctx context.Context, creds Credentials) (*ProviderUser, error) {
			return &ProviderUser{ID: "provider-user-2", Email: creds.Email}, nil
		},
	}
	var upserted *model.User
	userRepo := &mockUserRepo{
		upsertFunc: func(ctx context.Context, user *model.User) error {
			upserted = user
			return nil
		},
	}
	svc := newTestService(provider, userRepo, &mockSessionRepo{})

	user, err := svc.Signup(context.Background(), "new@example.com", "password123")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.ID != "provider-user-2" {
		t.Errorf("user.ID = %q, want provider-user-2", user.ID)
	}
	if upserted == nil || upserted.Email != "new@example.com" {
		t.Errorf("upserted = %+v, want email new@example.com", upserted)
	}
}

// TestSignup_Validation は形式不備がプロバイダー到達前に
// 拒否されることをテストする。
func TestSignup_Validation(t *testing.T) {
	provider := &mockProvider{
		signUpFunc: func(ctx context.Context, creds Credentials) (*ProviderUser, error) {
			t.Fatal("provider must not be called for invalid input")
			return nil, nil
		},
	}
	svc := newTestService(provider, &mockUserRepo{}, &mockSessionRepo{})

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"メール形式不正", "not-an-email", "password123"},
		{"パスワード短すぎ", "user@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.email, tt.password)
			if code := apiErrorCode(t, err); code != model.ErrCodeValidation {
				t.Errorf("error code = %q, want %q", code, model.ErrCodeValidation)
			}
		})
	}
}

// --- GetCurrentUser ---

// TestGetCurrentUser はセッションIDからユーザーを解決することをテストする。
func TestGetCurrentUser(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
			if id != "session-1" {
				return nil, nil
			}
			return &model.Session{ID: "session-1", UserID: "user-1"}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "user@example.com"}, nil
		},
	}
	svc := newTestService(okProvider(), userRepo, sessionRepo)

	user, err := svc.GetCurrentUser(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want user-1", user.ID)
	}

	// 存在しないセッションはUNAUTHORIZED
	_, err = svc.GetCurrentUser(context.Background(), "unknown")
	if code := apiErrorCode(t, err); code != model.ErrCodeUnauthorized {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeUnauthorized)
	}

	// セッションIDなしもUNAUTHORIZED
	_, err = svc.GetCurrentUser(context.Background(), "")
	if code := apiErrorCode(t, err); code != model.ErrCodeUnauthorized {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeUnauthorized)
	}
}

// --- RefreshSession ---

// TestRefreshSession_RotatesToken はリフレッシュ成功でトークンが
// ローテーションされることをテストする。
func TestRefreshSession_RotatesToken(t *testing.T) {
	provider := &mockProvider{
		refreshFunc: func(ctx context.Context, refreshToken string) (*ProviderSession, error) {
			if refreshToken != "old-token" {
				t.Errorf("refreshToken = %q, want old-token", refreshToken)
			}
			return &ProviderSession{RefreshToken: "new-token"}, nil
		},
	}
	var updatedToken string
	sessionRepo := &mockSessionRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", RefreshToken: "old-token"}, nil
		},
		updateRefreshTokenFunc: func(ctx context.Context, id, refreshToken string) error {
			updatedToken = refreshToken
			return nil
		},
	}
	svc := newTestService(provider, &mockUserRepo{}, sessionRepo)

	session, err := svc.RefreshSession(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("RefreshSession returned error: %v", err)
	}
	if updatedToken != "new-token" {
		t.Errorf("persisted token = %q, want new-token", updatedToken)
	}
	if session.RefreshToken != "new-token" {
		t.Errorf("session.RefreshToken = %q, want new-token", session.RefreshToken)
	}
}

// TestRefreshSession_RevokedUpstream はプロバイダーが拒否した場合に
// ローカルセッションも破棄されることをテストする。
func TestRefreshSession_RevokedUpstream(t *testing.T) {
	provider := &mockProvider{
		refreshFunc: func(ctx context.Context, refreshToken string) (*ProviderSession, error) {
			return nil, fmt.Errorf("%w: response status code 401", ErrInvalidCredentials)
		},
	}
	deleted := false
	sessionRepo := &mockSessionRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", RefreshToken: "revoked"}, nil
		},
		deleteByIDFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(provider, &mockUserRepo{}, sessionRepo)

	_, err := svc.RefreshSession(context.Background(), "session-1")
	if code := apiErrorCode(t, err); code != model.ErrCodeUnauthorized {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeUnauthorized)
	}
	if !deleted {
		t.Error("revoked session must be deleted")
	}
}

// --- RequestPasswordReset ---

// TestRequestPasswordReset はプロバイダーの拒否が成功として
// 扱われることをテストする（アカウント存在の秘匿）。
func TestRequestPasswordReset(t *testing.T) {
	provider := &mockProvider{
		sendPasswordResetFunc: func(ctx context.Context, email string) error {
			return fmt.Errorf("%w: response status code 400", ErrInvalidCredentials)
		},
	}
	svc := newTestService(provider, &mockUserRepo{}, &mockSessionRepo{})

	if err := svc.RequestPasswordReset(context.Background(), "unknown@example.com"); err != nil {
		t.Errorf("RequestPasswordReset = %v, want nil (must not leak account existence)", err)
	}

	// 到達不能は上流エラーとして返す
	provider.sendPasswordResetFunc = func(ctx context.Context, email string) error {
		return fmt.Errorf("%w: dial tcp", ErrProviderUnavailable)
	}
	err := svc.RequestPasswordReset(context.Background(), "user@example.com")
	if code := apiErrorCode(t, err); code != model.ErrCodeUpstreamProvider {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeUpstreamProvider)
	}
}

// --- Logout ---

// TestLogout はセッションが削除されることをテストする。
func TestLogout(t *testing.T) {
	deleted := ""
	sessionRepo := &mockSessionRepo{
		deleteByIDFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestService(okProvider(), &mockUserRepo{}, sessionRepo)

	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if deleted != "session-1" {
		t.Errorf("deleted session = %q, want session-1", deleted)
	}

	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Error("Logout with empty session ID must fail")
	}
}
