package cardrunner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/domain/model"
	"github.com/agrimanage/farmreg/internal/service"
	"github.com/agrimanage/farmreg/internal/testutil"
)

type runnerFixture struct {
	runner  *Runner
	jobs    *testutil.FakeJobRepo
	farmers *testutil.FakeFarmerRepo
	blobs   *testutil.FakeBlobRepo
}

func newRunnerFixture(t *testing.T, renderer core.CardRenderer) *runnerFixture {
	t.Helper()
	farmers := testutil.NewFakeFarmerRepo(testutil.NewFarmer().WithID("FRM-001").Build())
	jobs := testutil.NewFakeJobRepo()
	blobs := testutil.NewFakeBlobRepo()

	qr, err := service.NewQRService(service.QRServiceOptions{Secret: "qr-test-secret", Farmers: farmers})
	require.NoError(t, err)
	if renderer == nil {
		renderer = &testutil.FakeRenderer{}
	}
	cards, err := service.NewCardService(service.CardServiceOptions{
		Farmers:    farmers,
		Jobs:       jobs,
		Blobs:      blobs,
		Renderer:   renderer,
		QR:         qr,
		MaxRetries: 3,
	})
	require.NoError(t, err)

	runner, err := NewRunner(RunnerOptions{
		Jobs:         jobs,
		Cards:        cards,
		Lease:        time.Minute,
		Concurrency:  2,
		PollInterval: 5 * time.Millisecond,
		RetryBackoff: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	return &runnerFixture{runner: runner, jobs: jobs, farmers: farmers, blobs: blobs}
}

func TestRunner_ProcessJobCompletes(t *testing.T) {
	fx := newRunnerFixture(t, nil)
	ctx := context.Background()

	_, err := fx.jobs.Enqueue(ctx, "FRM-001", 3)
	require.NoError(t, err)
	job, err := fx.jobs.ReserveNext(ctx, time.Minute)
	require.NoError(t, err)

	fx.runner.processJob(ctx, job)

	final, err := fx.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, final.Status)
	assert.NotNil(t, final.CompletedAt)
	assert.NotEmpty(t, fx.farmers.Get("FRM-001").CardBlobID)
}

func TestRunner_ProcessJobRetriesThenParks(t *testing.T) {
	renderer := &testutil.FakeRenderer{CardErr: fmt.Errorf("render exploded")}
	fx := newRunnerFixture(t, renderer)
	ctx := context.Background()

	_, err := fx.jobs.Enqueue(ctx, "FRM-001", 3)
	require.NoError(t, err)

	// First two failures return the job to pending with a delay.
	for attempt := 1; attempt <= 2; attempt++ {
		now := time.Now().UTC().Add(time.Duration(attempt) * time.Hour)
		fx.jobs.Clock = func() time.Time { return now }

		job, err := fx.jobs.ReserveNext(ctx, time.Minute)
		require.NoError(t, err, "attempt %d", attempt)
		fx.runner.processJob(ctx, job)

		state, err := fx.jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, state.Status)
		assert.Equal(t, attempt, state.RetryCount)
		require.NotNil(t, state.LastError)
		assert.Contains(t, *state.LastError, "render exploded")
	}

	// Third failure exhausts the budget: dead letter.
	now := time.Now().UTC().Add(3 * time.Hour)
	fx.jobs.Clock = func() time.Time { return now }
	job, err := fx.jobs.ReserveNext(ctx, time.Minute)
	require.NoError(t, err)
	fx.runner.processJob(ctx, job)

	final, err := fx.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, final.Status)
	assert.Equal(t, 3, final.RetryCount)

	// No artifacts were published along the way.
	assert.Empty(t, fx.farmers.Get("FRM-001").CardBlobID)
}

func TestRunner_ProcessJobMissingFarmerFailsTerminally(t *testing.T) {
	fx := newRunnerFixture(t, nil)
	ctx := context.Background()

	_, err := fx.jobs.Enqueue(ctx, "FRM-001", 3)
	require.NoError(t, err)
	job, err := fx.jobs.ReserveNext(ctx, time.Minute)
	require.NoError(t, err)

	fx.farmers.Delete("FRM-001")
	fx.runner.processJob(ctx, job)

	final, err := fx.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, final.Status)
	assert.Zero(t, final.RetryCount, "permanent failures skip the retry budget")
}

func TestRunner_RetryDelayDoubles(t *testing.T) {
	fx := newRunnerFixture(t, nil)

	assert.Equal(t, 10*time.Millisecond, fx.runner.retryDelay(0))
	assert.Equal(t, 20*time.Millisecond, fx.runner.retryDelay(1))
	assert.Equal(t, 40*time.Millisecond, fx.runner.retryDelay(2))
	// Clamped so pathological retry counts cannot overflow.
	assert.Equal(t, fx.runner.retryDelay(10), fx.runner.retryDelay(50))
}

func TestRunner_RunDrainsQueueAndStopsOnCancel(t *testing.T) {
	fx := newRunnerFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var jobIDs []string
	for range 5 {
		job, err := fx.jobs.Enqueue(ctx, "FRM-001", 3)
		require.NoError(t, err)
		jobIDs = append(jobIDs, job.ID)
	}

	done := make(chan error, 1)
	go func() { done <- fx.runner.Run(ctx) }()

	require.Eventually(t, func() bool {
		for _, id := range jobIDs {
			j, err := fx.jobs.GetByID(context.Background(), id)
			if err != nil || j.Status != model.JobStatusCompleted {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}
