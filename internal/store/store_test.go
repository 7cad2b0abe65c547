package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"whitecarrot/internal/config"
	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newSeededStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s, err := New(context.Background(), p, Options{
		SeedOnEmpty: true,
		Now:         func() time.Time { return time.Date(2025, 12, 10, 8, 30, 0, 0, time.UTC) },
		NewID:       sequentialIDs(),
	})
	require.NoError(t, err)
	return s
}

type failingPersister struct {
	MemoryPersister
	fail bool
}

func (f *failingPersister) Save(ctx context.Context, doc []byte) error {
	if f.fail {
		return stderrors.New("disk full")
	}
	return f.MemoryPersister.Save(ctx, doc)
}

func TestNewSeedsEmptyBackend(t *testing.T) {
	p := NewMemoryPersister()
	s := newSeededStore(t, p)

	companies, err := s.ListCompanies(context.Background())
	require.NoError(t, err)
	assert.Len(t, companies, 4)

	raw, err := p.Load(context.Background())
	require.NoError(t, err, "seed must be written back to the backend")
	assert.Contains(t, string(raw), "acme-corp")
}

func TestNewWithoutSeedStartsEmpty(t *testing.T) {
	s, err := New(context.Background(), NewMemoryPersister(), Options{})
	require.NoError(t, err)

	jobs, err := s.ListAllJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestNewRejectsCorruptDocument(t *testing.T) {
	p := NewMemoryPersister()
	require.NoError(t, p.Save(context.Background(), []byte("{not json")))

	_, err := New(context.Background(), p, Options{SeedOnEmpty: true})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeStorage, errors.TypeOf(err))
}

func TestCompanyLookups(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, NewMemoryPersister())

	c, err := s.GetCompany(ctx, "globex")
	require.NoError(t, err)
	assert.Equal(t, "c2", c.ID)

	_, err = s.GetCompany(ctx, "initech")
	assert.True(t, errors.IsNotFound(err))

	jobs, err := s.ListJobs(ctx, "c2")
	require.NoError(t, err)
	for _, j := range jobs {
		assert.Equal(t, "c2", j.CompanyID)
	}
	assert.NotEmpty(t, jobs)
}

func TestUpdateCompanyMergesBranding(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, NewMemoryPersister())

	before, err := s.GetCompanyByID(ctx, "c1")
	require.NoError(t, err)

	updated, err := s.UpdateCompany(ctx, "c1", Patch{
		"name":     "Acme Rebrand",
		"branding": map[string]any{"primaryColor": "#123456"},
		"id":       "hijack",
	})
	require.NoError(t, err)

	assert.Equal(t, "c1", updated.ID)
	assert.Equal(t, "Acme Rebrand", updated.Name)
	assert.Equal(t, "#123456", updated.Branding.PrimaryColor)
	assert.Equal(t, before.Branding.SecondaryColor, updated.Branding.SecondaryColor)
	assert.Equal(t, before.Sections, updated.Sections)
}

func TestUpdateCompanyRejectsBadShape(t *testing.T) {
	s := newSeededStore(t, NewMemoryPersister())

	_, err := s.UpdateCompany(context.Background(), "c1", Patch{"sections": "not a list"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
}

func TestCandidateAccounts(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, NewMemoryPersister())

	c, err := s.GetCandidateByEmail(ctx, "JOHN.DOE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "john-doe-123", c.ID)

	_, err = s.CreateCandidate(ctx, domain.Candidate{Name: "John Again", Email: "John.Doe@Example.com"})
	assert.True(t, errors.IsConflict(err))

	created, err := s.CreateCandidate(ctx, domain.Candidate{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotNil(t, created.Skills)

	_, err = s.LoginCandidate(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	_, err = s.LoginCandidate(ctx, "ada@example.com", "wrong")
	assert.Equal(t, errors.ErrorTypeForbidden, errors.TypeOf(err))
}

func TestInsertApplication(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, NewMemoryPersister())

	tests := []struct {
		name    string
		app     domain.Application
		errType errors.ErrorType
	}{
		{
			name:    "unknown job",
			app:     domain.Application{JobID: "job-999", CandidateID: "john-doe-123"},
			errType: errors.ErrorTypeNotFound,
		},
		{
			name:    "unknown candidate",
			app:     domain.Application{JobID: "job-1", CandidateID: "nobody"},
			errType: errors.ErrorTypeNotFound,
		},
		{
			name:    "duplicate",
			app:     domain.Application{JobID: "job-0", CandidateID: "john-doe-123"},
			errType: errors.ErrorTypeConflict,
		},
		{
			name:    "invalid status",
			app:     domain.Application{JobID: "job-1", CandidateID: "john-doe-123", Status: "hired"},
			errType: errors.ErrorTypeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.InsertApplication(ctx, tt.app)
			require.Error(t, err)
			assert.Equal(t, tt.errType, errors.TypeOf(err))
		})
	}

	app, err := s.InsertApplication(ctx, domain.Application{JobID: "job-1", CandidateID: "john-doe-123"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, app.Status)
	assert.Equal(t, "2025-12-10T08:30:00.000Z", app.AppliedAt)

	mine, err := s.ApplicationsByCandidate(ctx, "john-doe-123")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, a := range mine {
		require.NotNil(t, a.Job)
		assert.Equal(t, a.JobID, a.Job.ID)
	}
}

func TestApplicationsForJobRedactsPasswords(t *testing.T) {
	s := newSeededStore(t, NewMemoryPersister())

	apps, err := s.ApplicationsForJob(context.Background(), "job-0")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.NotNil(t, apps[0].Candidate)
	assert.Empty(t, apps[0].Candidate.Password)
	assert.Equal(t, "Match Score: 85%. Matched 7 of 7 required skills. FAST TRACK RECOMMENDED.", apps[0].AIAnalysis.String())
}

func TestUpdateApplication(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, NewMemoryPersister())

	updated, err := s.UpdateApplication(ctx, "app-demo-1", Patch{"status": "interview"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInterview, updated.Status)
	require.NotNil(t, updated.Score)
	assert.InDelta(t, 85, *updated.Score, 0.001)

	_, err = s.UpdateApplication(ctx, "app-demo-1", Patch{"status": "hired"})
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))

	_, err = s.UpdateApplication(ctx, "missing", Patch{"status": "applied"})
	assert.True(t, errors.IsNotFound(err))
}

func TestRecruiterSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, NewMemoryPersister())

	r, c, err := s.CreateRecruiter(ctx, RecruiterSignup{
		Name:        "Grace",
		Email:       "grace@initech.com",
		Username:    "grace",
		Password:    "secret",
		CompanyName: "Initech  Labs",
	})
	require.NoError(t, err)
	assert.Equal(t, "initech-labs", c.Slug)
	assert.Equal(t, DefaultPrimaryColor, c.Branding.PrimaryColor)
	assert.Equal(t, domain.RoleAdmin, r.Role)
	assert.Equal(t, c.ID, r.CompanyID)

	_, _, err = s.CreateRecruiter(ctx, RecruiterSignup{Email: "other@x.com", Username: "GRACE", CompanyName: "Other"})
	assert.True(t, errors.IsConflict(err))

	byName, err := s.LoginRecruiter(ctx, "Grace", "secret")
	require.NoError(t, err)
	assert.Equal(t, r.ID, byName.ID)

	_, err = s.LoginRecruiter(ctx, "hr@acmecorp.com", "nope")
	assert.Equal(t, errors.ErrorTypeForbidden, errors.TypeOf(err))
}

func TestQuestionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, NewMemoryPersister())

	q, err := s.CreateQuestion(ctx, domain.DSAQuestion{CompanyID: "c4", Title: "Reverse List"})
	require.NoError(t, err)
	assert.Regexp(t, `^dsa-`, q.ID)
	assert.Equal(t, "2025-12-10T08:30:00.000Z", q.CreatedAt)

	list, err := s.ListQuestions(ctx, "c4")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	updated, err := s.UpdateQuestion(ctx, q.ID, Patch{"difficulty": "Hard"})
	require.NoError(t, err)
	assert.Equal(t, domain.DifficultyHard, updated.Difficulty)

	require.NoError(t, s.DeleteQuestion(ctx, q.ID))
	_, err = s.GetQuestion(ctx, q.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestFailedSaveLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	p := &failingPersister{}
	s := newSeededStore(t, p)

	p.fail = true
	_, err := s.InsertApplication(ctx, domain.Application{JobID: "job-1", CandidateID: "john-doe-123"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeStorage, errors.TypeOf(err))

	apps, err := s.ApplicationsByCandidate(ctx, "john-doe-123")
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestFailedSaveThroughPointerLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	p := &failingPersister{}
	s := newSeededStore(t, p)

	app, err := s.InsertApplication(ctx, domain.Application{
		JobID:         "job-1",
		CandidateID:   "john-doe-123",
		Status:        domain.StatusRejected,
		RejectionInfo: &domain.RejectionInfo{RejectedBy: domain.RejectedByAI, Reason: "r"},
	})
	require.NoError(t, err)

	p.fail = true
	_, err = s.ModifyApplication(ctx, app.ID, func(a *domain.Application) error {
		a.RejectionInfo.EmailSent = true
		return nil
	})
	require.Error(t, err)

	got, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RejectionInfo)
	assert.False(t, got.RejectionInfo.EmailSent)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, NewMemoryPersister())

	app, err := s.InsertApplication(ctx, domain.Application{
		JobID:         "job-1",
		CandidateID:   "john-doe-123",
		Status:        domain.StatusRejected,
		RejectionInfo: &domain.RejectionInfo{RejectedBy: domain.RejectedByAI, Reason: "r"},
	})
	require.NoError(t, err)
	app.RejectionInfo.Reason = "changed after insert"

	got, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	got.RejectionInfo.Reason = "changed by reader"

	again, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "r", again.RejectionInfo.Reason)

	candidate, err := s.GetCandidate(ctx, "john-doe-123")
	require.NoError(t, err)
	require.NotEmpty(t, candidate.Skills)
	original := candidate.Skills[0]
	candidate.Skills[0] = "changed by reader"

	candidate, err = s.GetCandidate(ctx, "john-doe-123")
	require.NoError(t, err)
	assert.Equal(t, original, candidate.Skills[0])
}

// stallingPersister pauses Load after reading until release is closed
type stallingPersister struct {
	MemoryPersister
	loaded  chan struct{}
	release chan struct{}
}

func (p *stallingPersister) Load(ctx context.Context) ([]byte, error) {
	doc, err := p.MemoryPersister.Load(ctx)
	if p.loaded != nil {
		close(p.loaded)
		<-p.release
	}
	return doc, err
}

func TestReloadSkipsDocumentReadBeforeOwnWrite(t *testing.T) {
	ctx := context.Background()
	p := &stallingPersister{}
	s := newSeededStore(t, p)

	p.loaded = make(chan struct{})
	p.release = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := s.Reload(ctx)
		done <- err
	}()

	<-p.loaded
	_, err := s.InsertApplication(ctx, domain.Application{JobID: "job-1", CandidateID: "john-doe-123"})
	require.NoError(t, err)
	close(p.release)
	require.NoError(t, <-done)

	apps, err := s.ApplicationsByCandidate(ctx, "john-doe-123")
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestReloadPicksUpExternalChanges(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := newSeededStore(t, p)

	changed, err := s.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "own writes are not reloaded")

	data, err := s.Snapshot(ctx)
	require.NoError(t, err)
	data.Companies = data.Companies[:1]
	raw, err := Encode(data)
	require.NoError(t, err)
	require.NoError(t, p.Save(ctx, raw))

	changed, err = s.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	companies, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 1)
}

func TestResetRestoresSeed(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, NewMemoryPersister())

	require.NoError(t, s.DeleteQuestion(ctx, "dsa-1"))
	require.NoError(t, s.Reset(ctx))

	_, err := s.GetQuestion(ctx, "dsa-1")
	assert.NoError(t, err)
}

func TestSimulatedLatencyHonoursContext(t *testing.T) {
	s, err := New(context.Background(), NewMemoryPersister(), Options{SeedOnEmpty: true})
	require.NoError(t, err)
	s.latency = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ListCompanies(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilePersister(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "db.json")
	p := NewFilePersister(path)

	_, err := p.Load(ctx)
	assert.ErrorIs(t, err, ErrNoData)

	s := newSeededStore(t, p)
	_, err = s.CreateCandidate(ctx, domain.Candidate{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	reopened, err := New(ctx, NewFilePersister(path), Options{})
	require.NoError(t, err)
	c, err := reopened.GetCandidateByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Name)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFilePersisterWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	p := NewFilePersister(path)
	p.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"companies":[]}`), 0o644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestSQLitePersister(t *testing.T) {
	ctx := context.Background()
	cfg := config.SQLiteStoreConfig{Path: filepath.Join(t.TempDir(), "ats.db"), Table: "ats_documents"}

	p, err := NewSQLitePersister(ctx, cfg, "test_doc")
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	_, err = p.Load(ctx)
	assert.ErrorIs(t, err, ErrNoData)

	require.NoError(t, p.Save(ctx, []byte(`{"a":1}`)))
	require.NoError(t, p.Save(ctx, []byte(`{"a":2}`)))

	raw, err := p.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(raw))

	_, err = NewSQLitePersister(ctx, config.SQLiteStoreConfig{Path: cfg.Path, Table: "drop table;"}, "x")
	assert.Error(t, err)
}

func TestRedisPersister(t *testing.T) {
	addr := os.Getenv("WHITECARROT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WHITECARROT_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	key := fmt.Sprintf("whitecarrot_test_%d", time.Now().UnixNano())

	p, err := NewRedisPersister(ctx, config.RedisStoreConfig{Addr: addr}, key)
	require.NoError(t, err)
	defer func() {
		_ = p.client.Del(ctx, key).Err()
		_ = p.Close()
	}()

	_, err = p.Load(ctx)
	assert.ErrorIs(t, err, ErrNoData)
	require.NoError(t, p.Save(ctx, []byte(`{"a":1}`)))
	raw, err := p.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))
}

func TestPostgresPersister(t *testing.T) {
	dsn := os.Getenv("WHITECARROT_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("WHITECARROT_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	key := fmt.Sprintf("whitecarrot_test_%d", time.Now().UnixNano())

	p, err := NewPostgresPersister(ctx, config.PostgresStoreConfig{DSN: dsn, Table: "ats_documents_test", MaxConns: 2}, key)
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	_, err = p.Load(ctx)
	assert.ErrorIs(t, err, ErrNoData)
	require.NoError(t, p.Save(ctx, []byte(`{"a":1}`)))
	raw, err := p.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))
}

func TestNewPersisterBackends(t *testing.T) {
	ctx := context.Background()

	p, err := NewPersister(ctx, config.StoreConfig{Backend: BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryPersister{}, p)

	p, err = NewPersister(ctx, config.StoreConfig{Backend: BackendFile, File: config.FileStoreConfig{Path: filepath.Join(t.TempDir(), "x.json")}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FilePersister{}, p)

	p, err = NewPersister(ctx, config.StoreConfig{
		Backend:        BackendFile,
		File:           config.FileStoreConfig{Path: filepath.Join(t.TempDir(), "x.json")},
		CircuitBreaker: config.CircuitBreakerConfig{Enabled: true, MaxRequests: 1, MinRequests: 3, FailureThreshold: 0.5, Timeout: time.Second},
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &breakerPersister{}, p)
	assert.Implements(t, (*Watcher)(nil), p)

	p, err = NewPersister(ctx, config.StoreConfig{
		Backend:        BackendSQLite,
		Key:            "k",
		SQLite:         config.SQLiteStoreConfig{Path: filepath.Join(t.TempDir(), "x.db"), Table: "docs"},
		CircuitBreaker: config.CircuitBreakerConfig{Enabled: true, MaxRequests: 1, MinRequests: 3, FailureThreshold: 0.5, Timeout: time.Second},
	}, nil)
	require.NoError(t, err)
	defer func() { _ = p.Close() }()
	assert.IsType(t, &breakerPersister{}, p)
	_, err = p.Load(ctx)
	assert.ErrorIs(t, err, ErrNoData, "empty backend passes through the breaker")

	_, err = NewPersister(ctx, config.StoreConfig{Backend: "mongo"}, nil)
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
}
