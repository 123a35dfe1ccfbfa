package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/pkg/apperror"
	"github.com/connectsphere/backend/internal/repository"
)

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	if args.Error(0) == nil {
		report.ID = 42
		report.Status = models.ReportStatusPending
		report.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *mockReportRepo) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *mockReportRepo) List(ctx context.Context, status string, limit int) ([]models.ReportWithUsers, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReportWithUsers), args.Error(1)
}

func (m *mockReportRepo) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	args := m.Called(ctx, reporterID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *mockReportRepo) UpdateStatus(ctx context.Context, id int64, status string, note *string, resolvedBy *uuid.UUID, resolvedAt *time.Time) error {
	args := m.Called(ctx, id, status, note, resolvedBy, resolvedAt)
	return args.Error(0)
}

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishToModerators(event string, data interface{}) {
	m.Called(event, data)
}

func TestReportService_Submit_Success(t *testing.T) {
	repo := new(mockReportRepo)
	users := new(mockUserDirectory)
	events := new(mockPublisher)
	svc := NewReportService(repo, users, events)

	reporterID := uuid.New()
	reportedID := uuid.New()

	users.On("Exists", mock.Anything, reportedID).Return(true, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Report")).Return(nil)
	events.On("PublishToModerators", "report.created", mock.Anything).Return()

	desc := "  оскорбления в комментариях  "
	report, err := svc.Submit(context.Background(), reporterID, SubmitReportInput{
		ReportedUserID: reportedID,
		Category:       models.ReportCategoryHarassment,
		Description:    &desc,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Equal(t, reporterID, report.ReporterID)
	assert.Equal(t, reportedID, *report.ReportedID)
	assert.Equal(t, "оскорбления в комментариях", *report.Description)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestReportService_Submit_SelfReport(t *testing.T) {
	svc := NewReportService(new(mockReportRepo), new(mockUserDirectory), nil)

	userID := uuid.New()
	_, err := svc.Submit(context.Background(), userID, SubmitReportInput{
		ReportedUserID: userID,
		Category:       models.ReportCategorySpam,
	})

	assert.ErrorIs(t, err, apperror.ErrSelfReport)
}

func TestReportService_Submit_UnknownCategory(t *testing.T) {
	svc := NewReportService(new(mockReportRepo), new(mockUserDirectory), nil)

	_, err := svc.Submit(context.Background(), uuid.New(), SubmitReportInput{
		ReportedUserID: uuid.New(),
		Category:       "trolling",
	})

	assert.True(t, apperror.IsInvalidArgument(err))
}

func TestReportService_Submit_ReportedUserMissing(t *testing.T) {
	repo := new(mockReportRepo)
	users := new(mockUserDirectory)
	svc := NewReportService(repo, users, nil)

	reportedID := uuid.New()
	users.On("Exists", mock.Anything, reportedID).Return(false, nil)

	_, err := svc.Submit(context.Background(), uuid.New(), SubmitReportInput{
		ReportedUserID: reportedID,
		Category:       models.ReportCategorySpam,
	})

	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportService_Submit_BlankDescriptionDropped(t *testing.T) {
	repo := new(mockReportRepo)
	users := new(mockUserDirectory)
	svc := NewReportService(repo, users, nil)

	reportedID := uuid.New()
	users.On("Exists", mock.Anything, reportedID).Return(true, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Report")).Return(nil)

	blank := "   "
	report, err := svc.Submit(context.Background(), uuid.New(), SubmitReportInput{
		ReportedUserID: reportedID,
		Category:       models.ReportCategoryOther,
		Description:    &blank,
	})

	assert.NoError(t, err)
	assert.Nil(t, report.Description)
}

func TestReportService_Submit_BadEvidenceURL(t *testing.T) {
	svc := NewReportService(new(mockReportRepo), new(mockUserDirectory), nil)

	_, err := svc.Submit(context.Background(), uuid.New(), SubmitReportInput{
		ReportedUserID: uuid.New(),
		Category:       models.ReportCategorySpam,
		EvidenceURLs:   []string{"ftp://evil.example/file"},
	})

	assert.True(t, apperror.IsInvalidArgument(err))
}

func TestReportService_List_InvalidStatus(t *testing.T) {
	svc := NewReportService(new(mockReportRepo), new(mockUserDirectory), nil)

	_, err := svc.List(context.Background(), "archived")
	assert.True(t, apperror.IsInvalidArgument(err))
}

func TestReportService_List_PassesPageSize(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo, new(mockUserDirectory), nil)

	repo.On("List", mock.Anything, models.ReportStatusPending, moderationPageSize).
		Return([]models.ReportWithUsers{}, nil)

	reports, err := svc.List(context.Background(), models.ReportStatusPending)
	assert.NoError(t, err)
	assert.Empty(t, reports)
	repo.AssertExpectations(t)
}

func TestReportService_Transition_TerminalStampsResolution(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo, new(mockUserDirectory), nil)

	moderatorID := uuid.New()
	note := "нарушение подтверждено"

	repo.On("UpdateStatus", mock.Anything, int64(7), models.ReportStatusActionTaken,
		mock.AnythingOfType("*string"), mock.AnythingOfType("*uuid.UUID"), mock.AnythingOfType("*time.Time")).
		Run(func(args mock.Arguments) {
			assert.Equal(t, note, *args.Get(3).(*string))
			assert.Equal(t, moderatorID, *args.Get(4).(*uuid.UUID))
			assert.WithinDuration(t, time.Now(), *args.Get(5).(*time.Time), time.Second)
		}).
		Return(nil)

	err := svc.Transition(context.Background(), moderatorID, 7, models.ReportStatusActionTaken, &note)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReportService_Transition_NonTerminalClearsResolution(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo, new(mockUserDirectory), nil)

	repo.On("UpdateStatus", mock.Anything, int64(7), models.ReportStatusUnderReview,
		(*string)(nil), (*uuid.UUID)(nil), (*time.Time)(nil)).
		Return(nil)

	err := svc.Transition(context.Background(), uuid.New(), 7, models.ReportStatusUnderReview, nil)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReportService_Transition_InvalidStatus(t *testing.T) {
	svc := NewReportService(new(mockReportRepo), new(mockUserDirectory), nil)

	err := svc.Transition(context.Background(), uuid.New(), 7, "deleted", nil)
	assert.True(t, apperror.IsInvalidArgument(err))
}

func TestReportService_Transition_NotFound(t *testing.T) {
	repo := new(mockReportRepo)
	svc := NewReportService(repo, new(mockUserDirectory), nil)

	repo.On("UpdateStatus", mock.Anything, int64(99), models.ReportStatusDismissed,
		(*string)(nil), mock.AnythingOfType("*uuid.UUID"), mock.AnythingOfType("*time.Time")).
		Return(repository.ErrReportNotFound)

	err := svc.Transition(context.Background(), uuid.New(), 99, models.ReportStatusDismissed, nil)
	assert.ErrorIs(t, err, apperror.ErrReportNotFound)
}
