package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/models"
)

func TestComputeJobStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.RecommendationStatus
		want     models.JobStatus
	}{
		{
			name:     "no recommendations",
			statuses: nil,
			want:     models.JobOpenWithoutRecommendations,
		},
		{
			name:     "single pending",
			statuses: []models.RecommendationStatus{models.RecommendationPending},
			want:     models.JobOpenWithRecommendations,
		},
		{
			name:     "single in review",
			statuses: []models.RecommendationStatus{models.RecommendationInReview},
			want:     models.JobRecruitmentProcess,
		},
		{
			name:     "single rejected",
			statuses: []models.RecommendationStatus{models.RecommendationRejected},
			want:     models.JobAllRecommendationsRejected,
		},
		{
			name:     "single contracted",
			statuses: []models.RecommendationStatus{models.RecommendationContracted},
			want:     models.JobHired,
		},
		{
			name: "all rejected",
			statuses: []models.RecommendationStatus{
				models.RecommendationRejected,
				models.RecommendationRejected,
				models.RecommendationRejected,
			},
			want: models.JobAllRecommendationsRejected,
		},
		{
			name: "rejected plus pending stays open",
			statuses: []models.RecommendationStatus{
				models.RecommendationRejected,
				models.RecommendationPending,
			},
			want: models.JobOpenWithRecommendations,
		},
		{
			name: "in review outranks pending and rejected",
			statuses: []models.RecommendationStatus{
				models.RecommendationPending,
				models.RecommendationRejected,
				models.RecommendationInReview,
			},
			want: models.JobRecruitmentProcess,
		},
		{
			name: "contracted wins over everything",
			statuses: []models.RecommendationStatus{
				models.RecommendationRejected,
				models.RecommendationContracted,
				models.RecommendationInReview,
				models.RecommendationPending,
			},
			want: models.JobHired,
		},
		{
			name: "contracted plus all others rejected stays hired",
			statuses: []models.RecommendationStatus{
				models.RecommendationContracted,
				models.RecommendationRejected,
				models.RecommendationRejected,
			},
			want: models.JobHired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeJobStatus(tt.statuses); got != tt.want {
				t.Errorf("ComputeJobStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

// The derivation must depend only on the multiset of statuses, never on the
// order recommendations were created or listed in.
func TestComputeJobStatus_OrderIndependent(t *testing.T) {
	statuses := []models.RecommendationStatus{
		models.RecommendationPending,
		models.RecommendationInReview,
		models.RecommendationRejected,
		models.RecommendationRejected,
		models.RecommendationContracted,
	}
	want := ComputeJobStatus(statuses)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := make([]models.RecommendationStatus, len(statuses))
		copy(shuffled, statuses)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := ComputeJobStatus(shuffled); got != want {
			t.Fatalf("permutation %d: got %q, want %q", i, got, want)
		}
	}
}

// Walks a job through a full lifecycle: three recommendations arrive, two get
// rejected, one goes into review, then contracts. The job status tracks each
// step and ends hired, where it stays.
func TestJobStatus_Lifecycle(t *testing.T) {
	steps := []struct {
		statuses []models.RecommendationStatus
		want     models.JobStatus
	}{
		{nil, models.JobOpenWithoutRecommendations},
		{
			[]models.RecommendationStatus{
				models.RecommendationPending, models.RecommendationPending, models.RecommendationPending,
			},
			models.JobOpenWithRecommendations,
		},
		{
			[]models.RecommendationStatus{
				models.RecommendationRejected, models.RecommendationPending, models.RecommendationPending,
			},
			models.JobOpenWithRecommendations,
		},
		{
			[]models.RecommendationStatus{
				models.RecommendationRejected, models.RecommendationInReview, models.RecommendationPending,
			},
			models.JobRecruitmentProcess,
		},
		{
			[]models.RecommendationStatus{
				models.RecommendationRejected, models.RecommendationContracted, models.RecommendationPending,
			},
			models.JobHired,
		},
		{
			[]models.RecommendationStatus{
				models.RecommendationRejected, models.RecommendationContracted, models.RecommendationRejected,
			},
			models.JobHired,
		},
	}

	for i, step := range steps {
		if got := ComputeJobStatus(step.statuses); got != step.want {
			t.Errorf("step %d: got %q, want %q", i, got, step.want)
		}
	}
}

func TestJobStatusService_Recompute_PersistsDerivedStatus(t *testing.T) {
	jobID := uuid.New()
	jobRepo := &mockJobRepo{}
	recRepo := &mockRecommendationRepo{
		ListByJobFunc: func(ctx context.Context, id uuid.UUID) ([]*models.Recommendation, error) {
			return []*models.Recommendation{
				{JobID: id, Status: models.RecommendationInReview},
				{JobID: id, Status: models.RecommendationRejected},
			}, nil
		},
	}

	service := NewJobStatusService(jobRepo, recRepo, zap.NewNop())

	status, err := service.Recompute(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if status != models.JobRecruitmentProcess {
		t.Errorf("expected %q, got %q", models.JobRecruitmentProcess, status)
	}
	if len(jobRepo.updatedStatuses) != 1 || jobRepo.updatedStatuses[0] != models.JobRecruitmentProcess {
		t.Errorf("expected one persisted status update, got %v", jobRepo.updatedStatuses)
	}
}

// Concurrent recomputes on the same job must serialize; with a stable
// recommendation set every write carries the same derived status.
func TestJobStatusService_Recompute_ConcurrentSameJob(t *testing.T) {
	jobID := uuid.New()
	jobRepo := &mockJobRepo{}

	recRepo := &mockRecommendationRepo{
		ListByJobFunc: func(ctx context.Context, id uuid.UUID) ([]*models.Recommendation, error) {
			return []*models.Recommendation{
				{JobID: id, Status: models.RecommendationPending},
			}, nil
		},
	}

	service := NewJobStatusService(jobRepo, recRepo, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Recompute(context.Background(), jobID); err != nil {
				t.Errorf("Recompute failed: %v", err)
			}
		}()
	}
	wg.Wait()

	for _, status := range jobRepo.updatedStatuses {
		if status != models.JobOpenWithRecommendations {
			t.Errorf("unexpected persisted status %q", status)
		}
	}
}

// The per-job lock table must not retain an entry for every job ever
// recomputed: entries are evicted once the last holder releases.
func TestJobStatusService_LockTableDoesNotGrow(t *testing.T) {
	recRepo := &mockRecommendationRepo{
		ListByJobFunc: func(ctx context.Context, id uuid.UUID) ([]*models.Recommendation, error) {
			return nil, nil
		},
	}
	service := NewJobStatusService(&mockJobRepo{}, recRepo, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		jobID := uuid.New()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Recompute(context.Background(), jobID); err != nil {
				t.Errorf("Recompute failed: %v", err)
			}
		}()
	}
	wg.Wait()

	impl := service.(*jobStatusService)
	impl.mu.Lock()
	remaining := len(impl.locks)
	impl.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expected an empty lock table after all recomputes finished, got %d entries", remaining)
	}
}
