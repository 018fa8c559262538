// Package journal はジャーナルエントリのドメインロジックを提供する。
package journal

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/kokorolog/internal/metrics"
	"github.com/hitoshi/kokorolog/internal/model"
	"github.com/hitoshi/kokorolog/internal/repository"
	"github.com/hitoshi/kokorolog/internal/security"
)

const (
	// maxContentLength は本文の最大文字数（rune数）。
	maxContentLength = 10000
	// dailyEntryLimit は1ユーザー1日あたりの作成上限。
	dailyEntryLimit = 20
)

// CreateInput はエントリ作成の入力。
type CreateInput struct {
	JournalType  string
	EmotionLevel int
	BodyMapping  model.BodyMapping
	Content      string
}

// Service はジャーナルエントリのCRUDと検証を提供する。
// 本文は保存前にサニタイズされる。
type Service struct {
	journalRepo repository.JournalRepository
	sanitizer   security.ContentSanitizerService
	collector   metrics.MetricsCollector
	clock       func() time.Time
}

// NewService はServiceを生成する。
// collectorはnil可。clockがnilの場合はtime.Nowを使用する。
func NewService(
	journalRepo repository.JournalRepository,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
	clock func() time.Time,
) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		journalRepo: journalRepo,
		sanitizer:   sanitizer,
		collector:   collector,
		clock:       clock,
	}
}

// CreateEntry はエントリを検証・サニタイズして作成する。
// 未知のジャーナル種別はbodyにフォールバックする（エラーにしない）。
// 1日あたりの作成数が上限に達している場合はENTRY_LIMITを返す。
func (s *Service) CreateEntry(ctx context.Context, userID string, input CreateInput) (*model.JournalEntry, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.clock()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, err := s.journalRepo.CountByUserSince(ctx, userID, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's entries: %w", err)
	}
	if count >= dailyEntryLimit {
		return nil, model.NewEntryLimitError(dailyEntryLimit)
	}

	entry := &model.JournalEntry{
		ID:           uuid.New().String(),
		UserID:       userID,
		JournalType:  model.ParseJournalType(input.JournalType),
		EmotionLevel: input.EmotionLevel,
		BodyMapping:  input.BodyMapping,
		Content:      s.sanitizer.Sanitize(input.Content),
		CreatedAt:    now,
	}

	if err := s.journalRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordEntryCreated(string(entry.JournalType))
	}

	return entry, nil
}

// ListEntries はユーザーのエントリ一覧を返す。
// windowDaysが正の場合は直近windowDays日分に絞り込む。
func (s *Service) ListEntries(ctx context.Context, userID string, windowDays int) ([]model.JournalEntry, error) {
	var since time.Time
	if windowDays > 0 {
		since = s.clock().AddDate(0, 0, -windowDays)
	}

	entries, err := s.journalRepo.ListByUser(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	return entries, nil
}

// GetEntry は指定IDのエントリを返す。
// 他ユーザーのエントリは存在の有無を漏らさないためNOT_FOUNDとして扱う。
func (s *Service) GetEntry(ctx context.Context, userID, entryID string) (*model.JournalEntry, error) {
	entry, err := s.journalRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find journal entry: %w", err)
	}
	if entry == nil || entry.UserID != userID {
		return nil, model.NewEntryNotFoundError(entryID)
	}
	return entry, nil
}

// DeleteEntry は指定IDのエントリを削除する。所有者のみ削除できる。
func (s *Service) DeleteEntry(ctx context.Context, userID, entryID string) error {
	entry, err := s.journalRepo.FindByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("failed to find journal entry: %w", err)
	}
	if entry == nil || entry.UserID != userID {
		return model.NewEntryNotFoundError(entryID)
	}

	if err := s.journalRepo.Delete(ctx, entryID); err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	return nil
}

// validateInput はエントリ作成入力を検証する。
func validateInput(input CreateInput) error {
	if input.EmotionLevel < model.EmotionLevelMin || input.EmotionLevel > model.EmotionLevelMax {
		return model.NewValidationError(
			fmt.Sprintf("emotionLevelは%d〜%dで指定してください", model.EmotionLevelMin, model.EmotionLevelMax))
	}

	if utf8.RuneCountInString(input.Content) > maxContentLength {
		return model.NewValidationError(
			fmt.Sprintf("本文は%d文字以内にしてください", maxContentLength))
	}

	if ms, ok := input.BodyMapping.MatchingScore(); ok {
		if ms < 1 || ms > 5 {
			return model.NewValidationError("matchingScoreは1〜5で指定してください")
		}
	}

	return nil
}
