package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

// FakeUserRepo is an in-memory core.UserRepository.
type FakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewFakeUserRepo(users ...*model.User) *FakeUserRepo {
	r := &FakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		clone := *u
		r.users[u.Email] = &clone
	}
	return r
}

func (r *FakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	clone := *u
	return &clone, nil
}

func (r *FakeUserRepo) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return nil, apperrors.Conflict("user already exists")
	}
	clone := *user
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	r.users[clone.Email] = &clone
	out := clone
	return &out, nil
}

func (r *FakeUserRepo) UpdateLastLogin(_ context.Context, email string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	t := at
	u.LastLogin = &t
	return nil
}

func (r *FakeUserRepo) UpdatePassword(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

// Mutate applies fn to the stored record, simulating out-of-band changes.
func (r *FakeUserRepo) Mutate(email string, fn func(*model.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[email]; ok {
		fn(u)
	}
}

// Get returns the stored record for assertions.
func (r *FakeUserRepo) Get(email string) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[email]; ok {
		clone := *u
		return &clone
	}
	return nil
}

// FakeFarmerRepo is an in-memory core.FarmerRepository.
type FakeFarmerRepo struct {
	mu      sync.Mutex
	farmers map[string]*model.Farmer
	byNRC   map[string]string
}

func NewFakeFarmerRepo(farmers ...*model.Farmer) *FakeFarmerRepo {
	r := &FakeFarmerRepo{
		farmers: make(map[string]*model.Farmer),
		byNRC:   make(map[string]string),
	}
	for _, f := range farmers {
		clone := *f
		r.farmers[f.FarmerID] = &clone
		r.byNRC[f.NRC] = f.FarmerID
	}
	return r
}

func (r *FakeFarmerRepo) FindByNRC(_ context.Context, nrc string) (*model.Farmer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byNRC[nrc]
	if !ok {
		return nil, apperrors.NotFound("farmer not found")
	}
	clone := *r.farmers[id]
	return &clone, nil
}

func (r *FakeFarmerRepo) FindByID(_ context.Context, farmerID string) (*model.Farmer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.farmers[farmerID]
	if !ok {
		return nil, apperrors.NotFound("farmer not found")
	}
	clone := *f
	return &clone, nil
}

func (r *FakeFarmerRepo) SetCardArtifacts(_ context.Context, params core.SetCardArtifactsParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.farmers[params.FarmerID]
	if !ok {
		return false, apperrors.NotFound("farmer not found")
	}
	if f.CardVersion != params.ExpectedVersion {
		return false, nil
	}
	f.CardBlobID = params.CardBlobID
	f.QRBlobID = params.QRBlobID
	t := params.GeneratedAt
	f.CardGeneratedAt = &t
	f.CardVersion++
	return true, nil
}

// Delete removes a farmer, simulating a record deleted mid-pipeline.
func (r *FakeFarmerRepo) Delete(farmerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.farmers[farmerID]; ok {
		delete(r.byNRC, f.NRC)
		delete(r.farmers, farmerID)
	}
}

// Get returns the stored record for assertions.
func (r *FakeFarmerRepo) Get(farmerID string) *model.Farmer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.farmers[farmerID]; ok {
		clone := *f
		return &clone
	}
	return nil
}

// FakeJobRepo is an in-memory core.JobRepository.
type FakeJobRepo struct {
	mu    sync.Mutex
	jobs  map[string]*model.CardJob
	order []string
	Clock func() time.Time
}

func NewFakeJobRepo() *FakeJobRepo {
	return &FakeJobRepo{
		jobs:  make(map[string]*model.CardJob),
		Clock: func() time.Time { return time.Now().UTC() },
	}
}

func (r *FakeJobRepo) Enqueue(_ context.Context, farmerID string, maxRetries int) (*model.CardJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Clock()
	job := &model.CardJob{
		ID:          uuid.NewString(),
		FarmerID:    farmerID,
		Status:      model.JobStatusPending,
		MaxRetries:  maxRetries,
		ScheduledAt: now,
		EnqueuedAt:  now,
	}
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	clone := *job
	return &clone, nil
}

func (r *FakeJobRepo) ReserveNext(_ context.Context, lease time.Duration) (*model.CardJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Clock()
	for _, id := range r.order {
		j := r.jobs[id]
		runnable := (j.Status == model.JobStatusPending && !j.ScheduledAt.After(now)) ||
			(j.Status == model.JobStatusRunning && j.LeaseExpiresAt != nil && j.LeaseExpiresAt.Before(now))
		if !runnable {
			continue
		}
		j.Status = model.JobStatusRunning
		if j.StartedAt == nil {
			t := now
			j.StartedAt = &t
		}
		exp := now.Add(lease)
		j.LeaseExpiresAt = &exp
		clone := *j
		return &clone, nil
	}
	return nil, model.ErrNoJobsAvailable
}

func (r *FakeJobRepo) Complete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return false, apperrors.NotFound("job not found")
	}
	if j.Status != model.JobStatusRunning {
		return false, nil
	}
	j.Status = model.JobStatusCompleted
	now := r.Clock()
	j.CompletedAt = &now
	j.LeaseExpiresAt = nil
	return true, nil
}

func (r *FakeJobRepo) Fail(_ context.Context, id, errMsg string, retryDelay time.Duration) (*model.CardJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("job not found")
	}
	j.RetryCount++
	j.LastError = &errMsg
	j.LeaseExpiresAt = nil
	if j.RetryCount >= j.MaxRetries {
		j.Status = model.JobStatusFailed
		now := r.Clock()
		j.CompletedAt = &now
	} else {
		j.Status = model.JobStatusPending
		j.ScheduledAt = r.Clock().Add(retryDelay)
	}
	clone := *j
	return &clone, nil
}

func (r *FakeJobRepo) FailTerminal(_ context.Context, id, errMsg string) (*model.CardJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("job not found")
	}
	j.Status = model.JobStatusFailed
	j.LastError = &errMsg
	j.LeaseExpiresAt = nil
	now := r.Clock()
	j.CompletedAt = &now
	clone := *j
	return &clone, nil
}

func (r *FakeJobRepo) GetByID(_ context.Context, id string) (*model.CardJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("job not found")
	}
	clone := *j
	return &clone, nil
}

// FakeBlobRepo is an in-memory core.BlobRepository.
type FakeBlobRepo struct {
	mu    sync.Mutex
	blobs map[string]*model.Blob
}

func NewFakeBlobRepo() *FakeBlobRepo {
	return &FakeBlobRepo{blobs: make(map[string]*model.Blob)}
}

func (r *FakeBlobRepo) Upload(_ context.Context, blob *model.Blob) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *blob
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	r.blobs[clone.ID] = &clone
	return clone.ID, nil
}

func (r *FakeBlobRepo) Get(_ context.Context, id string) (*model.Blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blobs[id]
	if !ok {
		return nil, apperrors.NotFound("blob not found")
	}
	clone := *b
	return &clone, nil
}

// Len returns the number of stored blobs.
func (r *FakeBlobRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blobs)
}

// FakeThrottle is an in-memory core.LoginThrottle.
type FakeThrottle struct {
	mu          sync.Mutex
	counts      map[string]int
	MaxAttempts int
	// Err, when set, is returned from every call to simulate an unavailable
	// backend.
	Err error
}

func NewFakeThrottle(maxAttempts int) *FakeThrottle {
	return &FakeThrottle{counts: make(map[string]int), MaxAttempts: maxAttempts}
}

func (t *FakeThrottle) Blocked(_ context.Context, identifier string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return false, t.Err
	}
	return t.counts[identifier] >= t.MaxAttempts, nil
}

func (t *FakeThrottle) RecordFailure(_ context.Context, identifier string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return t.Err
	}
	t.counts[identifier]++
	return nil
}

func (t *FakeThrottle) Reset(_ context.Context, identifier string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return t.Err
	}
	delete(t.counts, identifier)
	return nil
}

// Count returns the recorded failures for an identifier.
func (t *FakeThrottle) Count(identifier string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[identifier]
}

// FakeRenderer is a core.CardRenderer returning canned bytes.
type FakeRenderer struct {
	QRErr   error
	CardErr error
}

func (r *FakeRenderer) RenderQR(payload []byte) ([]byte, error) {
	if r.QRErr != nil {
		return nil, r.QRErr
	}
	return append([]byte("PNG:"), payload...), nil
}

func (r *FakeRenderer) RenderCard(input core.RenderCardInput) ([]byte, error) {
	if r.CardErr != nil {
		return nil, r.CardErr
	}
	return []byte("PDF:" + input.Farmer.FarmerID), nil
}
