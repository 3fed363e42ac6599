package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, p Persister) *Store {
	n := 0
	return New(p, logger.NewTestLogger(t),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("doc-%d", n) }),
	)
}

func testJob(id string) models.Job {
	return models.Job{ID: id, Company: "Acme", Title: "Engineer", Status: models.StatusSaved, CreatedAt: fixedNow, UpdatedAt: fixedNow}
}

type failingPersister struct{ MemoryPersister }

func (f *failingPersister) Save(context.Context, *Snapshot) error { return errors.New("disk full") }

func TestStore_LoadMissingSnapshotUsesDefaults(t *testing.T) {
	s := newTestStore(t, NewMemoryPersister())
	require.NoError(t, s.Load(context.Background()))

	assert.Empty(t, s.Jobs())
	assert.Nil(t, s.Profile())
	assert.Equal(t, models.DefaultGoals().Weekly, s.Goals().Weekly)
}

func TestStore_PersistsAndRestores(t *testing.T) {
	p := NewMemoryPersister()
	s := newTestStore(t, p)

	s.AddJob(testJob("a"))
	s.SetProfile(&models.UserProfile{ID: "p1", FullName: "Ada"})
	s.SetWeeklyGoals(models.WeeklyGoals{Applications: 3, Interviews: 1})
	assert.Equal(t, 3, p.Saves())

	restored := newTestStore(t, p)
	require.NoError(t, restored.Load(context.Background()))
	require.Len(t, restored.Jobs(), 1)
	assert.Equal(t, "Ada", restored.Profile().FullName)
	assert.Equal(t, 3, restored.Goals().Weekly.Applications)
}

func TestStore_PersistFailureIsNotFatal(t *testing.T) {
	s := newTestStore(t, &failingPersister{})
	assert.True(t, s.AddJob(testJob("a")))
	assert.Len(t, s.Jobs(), 1)
}

func TestStore_LoadError(t *testing.T) {
	p := NewMemoryPersister()
	p.data = []byte("{not json")
	err := newTestStore(t, p).Load(context.Background())
	assert.Equal(t, apperrors.ErrCodePersistenceFailed, apperrors.CodeOf(err))
}

func TestStore_Jobs(t *testing.T) {
	s := newTestStore(t, NewMemoryPersister())

	assert.True(t, s.AddJob(testJob("a")))
	assert.True(t, s.AddJob(testJob("b")))
	assert.False(t, s.AddJob(testJob("a")), "duplicate id must be ignored")

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[0].ID, "newest first")

	jobs[0].Company = "mutated"
	got, _ := s.Job("b")
	assert.Equal(t, "Acme", got.Company, "reads are copies")

	before, after, ok := s.UpdateJob("a", func(j models.Job) models.Job {
		j.Notes = "hello"
		return j
	})
	require.True(t, ok)
	assert.Empty(t, before.Notes)
	assert.Equal(t, "hello", after.Notes)

	_, _, ok = s.UpdateJob("missing", func(j models.Job) models.Job { return j })
	assert.False(t, ok)

	removed, ok := s.RemoveJob("a")
	require.True(t, ok)
	assert.Equal(t, "hello", removed.Notes)
	_, ok = s.RemoveJob("a")
	assert.False(t, ok)

	s.PutJob(removed)
	assert.Len(t, s.Jobs(), 2)

	s.ReplaceJobs([]models.Job{testJob("z")})
	require.Len(t, s.Jobs(), 1)
	assert.Equal(t, "z", s.Jobs()[0].ID)
}

func TestStore_ClearUserDataKeepsGoals(t *testing.T) {
	s := newTestStore(t, NewMemoryPersister())
	s.AddJob(testJob("a"))
	s.SetProfile(&models.UserProfile{ID: "p"})
	s.SetMonthlyGoals(models.MonthlyGoals{Applications: 1})

	s.ClearUserData()

	assert.Empty(t, s.Jobs())
	assert.Nil(t, s.Profile())
	assert.Equal(t, 1, s.Goals().Monthly.Applications)
}

func TestStore_Subscribe(t *testing.T) {
	s := newTestStore(t, NewMemoryPersister())

	var mu sync.Mutex
	var got []Change
	unsubscribe := s.Subscribe(func(c Change) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})

	s.AddJob(testJob("a"))
	s.AddJob(testJob("a"))
	s.ReplaceJobs(nil)
	unsubscribe()
	unsubscribe()
	s.AddJob(testJob("b"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Change{
		{Kind: ChangeJobs, JobID: "a"},
		{Kind: ChangeJobs},
	}, got)
}

func TestStore_GoalHistoryAndStreaks(t *testing.T) {
	s := newTestStore(t, NewMemoryPersister())
	week := func(d int) time.Time { return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC) }

	assert.True(t, s.AppendGoalHistory(models.GoalHistoryEntry{WeekStart: week(21), Completed: true}))
	assert.True(t, s.AppendGoalHistory(models.GoalHistoryEntry{WeekStart: week(28), Completed: true}))
	assert.False(t, s.AppendGoalHistory(models.GoalHistoryEntry{WeekStart: week(28), Completed: false}))

	assert.Len(t, s.GoalHistory(), 2)
	assert.Equal(t, 2, s.Streaks().CurrentStreak)
	assert.Equal(t, 2, s.Streaks().LongestStreak)

	streaks := s.RecordActivity(fixedNow)
	assert.Equal(t, 2, streaks.LongestStreak)
	assert.Equal(t, 1, streaks.TotalDaysActive)

	s.LogNetworkingEvent(fixedNow)
	assert.Len(t, s.Goals().NetworkingLog, 1)

	refreshed := s.RefreshStreaks()
	assert.Equal(t, 2, refreshed.CurrentStreak)
}

func TestStore_ResumePrimaryIsExclusive(t *testing.T) {
	s := newTestStore(t, NewMemoryPersister())

	first := s.AddResume(models.Resume{Name: "General"})
	assert.True(t, first.IsPrimary, "first resume becomes primary")
	assert.Equal(t, "doc-1", first.ID)

	second := s.AddResume(models.Resume{Name: "Backend", IsPrimary: true})
	docs := s.Documents()
	assert.False(t, docs.Resumes[0].IsPrimary)
	assert.True(t, docs.Resumes[1].IsPrimary)

	require.NoError(t, s.SetPrimaryResume(first.ID))
	docs = s.Documents()
	assert.True(t, docs.Resumes[0].IsPrimary)
	assert.False(t, docs.Resumes[1].IsPrimary)

	updated, err := s.UpdateResume(models.Resume{ID: first.ID, Name: "General v2"})
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary, "primary survives an update without the flag")

	require.NoError(t, s.DeleteResume(first.ID))
	docs = s.Documents()
	require.Len(t, docs.Resumes, 1)
	assert.Equal(t, second.ID, docs.Resumes[0].ID)
	assert.True(t, docs.Resumes[0].IsPrimary, "remaining resume promoted")

	err = s.SetPrimaryResume("missing")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestStore_CoverLetterDefaultPromotion(t *testing.T) {
	clock := fixedNow
	s := New(NewMemoryPersister(), logger.NewNoOpLogger(), WithClock(func() time.Time { return clock }))

	a := s.AddCoverLetter(models.CoverLetterTemplate{Name: "A", Content: "a"})
	clock = clock.Add(time.Hour)
	b := s.AddCoverLetter(models.CoverLetterTemplate{Name: "B", Content: "b"})
	clock = clock.Add(time.Hour)
	c := s.AddCoverLetter(models.CoverLetterTemplate{Name: "C", Content: "c"})
	assert.True(t, a.IsDefault)
	assert.False(t, c.IsDefault)

	clock = clock.Add(time.Hour)
	_, err := s.UpdateCoverLetter(models.CoverLetterTemplate{ID: b.ID, Name: "B2", Content: "b"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCoverLetter(a.ID))
	for _, tpl := range s.Documents().CoverLetters {
		assert.Equal(t, tpl.ID == b.ID, tpl.IsDefault, "most recently updated template is promoted")
	}

	require.NoError(t, s.SetDefaultCoverLetter(c.ID))
	assert.Error(t, s.DeleteCoverLetter("missing"))
}

func TestStore_PortfolioAndCertificates(t *testing.T) {
	s := newTestStore(t, NewMemoryPersister())

	link := s.AddPortfolioLink(models.PortfolioLink{Title: "GitHub", URL: "https://github.com/ada"})
	link.Description = "code"
	updated, err := s.UpdatePortfolioLink(link)
	require.NoError(t, err)
	assert.Equal(t, "code", updated.Description)
	require.NoError(t, s.DeletePortfolioLink(link.ID))
	assert.Error(t, s.DeletePortfolioLink(link.ID))

	cert := s.AddCertificate(models.Certificate{Name: "CKA"})
	_, err = s.UpdateCertificate(models.Certificate{ID: cert.ID, Name: "CKAD"})
	require.NoError(t, err)
	assert.Equal(t, "CKAD", s.Documents().Certificates[0].Name)
	_, err = s.UpdateCertificate(models.Certificate{ID: "nope"})
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
	require.NoError(t, s.DeleteCertificate(cert.ID))
}

func TestStore_ConcurrentMutations(t *testing.T) {
	p := NewMemoryPersister()
	s := newTestStore(t, p)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddJob(testJob(fmt.Sprintf("job-%d", i)))
		}(i)
	}
	wg.Wait()

	restored := newTestStore(t, p)
	require.NoError(t, restored.Load(context.Background()))
	assert.Len(t, restored.Jobs(), 50, "last persisted snapshot is the newest")
}
