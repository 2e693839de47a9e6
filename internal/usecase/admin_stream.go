package usecase

import (
	"context"
	"time"

	"github.com/logsift/logsift/internal/domain"
)

// BufferAdminUseCase provides use cases for buffer stream administration.
type BufferAdminUseCase struct {
	repo domain.BufferAdminRepository
}

// NewBufferAdminUseCase creates a new BufferAdminUseCase.
func NewBufferAdminUseCase(repo domain.BufferAdminRepository) *BufferAdminUseCase {
	return &BufferAdminUseCase{repo: repo}
}

func (uc *BufferAdminUseCase) GetGroupInfo(ctx context.Context, stream string) ([]domain.BufferGroupInfo, error) {
	return uc.repo.GetGroupInfo(ctx, stream)
}

func (uc *BufferAdminUseCase) GetConsumerInfo(ctx context.Context, stream, group string) ([]domain.BufferConsumerInfo, error) {
	return uc.repo.GetConsumerInfo(ctx, stream, group)
}

func (uc *BufferAdminUseCase) GetPendingSummary(ctx context.Context, stream, group string) (*domain.PendingSummary, error) {
	return uc.repo.GetPendingSummary(ctx, stream, group)
}

func (uc *BufferAdminUseCase) GetPendingMessages(ctx context.Context, stream, group, consumer, startID string, count int64) ([]domain.PendingMessage, error) {
	if startID == "" {
		startID = "-"
	}
	if count <= 0 {
		count = 100 // Default count
	}
	return uc.repo.GetPendingMessages(ctx, stream, group, consumer, startID, count)
}

func (uc *BufferAdminUseCase) ClaimMessages(ctx context.Context, stream, group, consumer string, minIdle time.Duration, messageIDs []string) ([]domain.AccessEvent, error) {
	return uc.repo.ClaimMessages(ctx, stream, group, consumer, minIdle, messageIDs)
}

func (uc *BufferAdminUseCase) AcknowledgeMessages(ctx context.Context, stream, group string, messageIDs ...string) (int64, error) {
	return uc.repo.AcknowledgeMessages(ctx, stream, group, messageIDs...)
}

func (uc *BufferAdminUseCase) TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error) {
	return uc.repo.TrimStream(ctx, stream, maxLen)
}
