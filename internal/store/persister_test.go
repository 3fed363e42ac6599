package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "jobtracker:test"

func TestRedisPersister_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewRedisPersister(client, testKey)
	ctx := context.Background()

	snap, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap, "missing key is not an error")

	require.NoError(t, p.Save(ctx, &Snapshot{Jobs: []models.Job{{ID: "a", Company: "Acme", Status: models.StatusApplied}}}))
	assert.True(t, mr.Exists(testKey))

	snap, err = p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Jobs, 1)
	assert.Equal(t, models.StatusApplied, snap.Jobs[0].Status)

	require.NoError(t, p.Remove(ctx))
	assert.False(t, mr.Exists(testKey))
}

func TestRedisPersister_StoreIntegration(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := newTestStore(t, NewRedisPersister(client, testKey))
	s.AddJob(testJob("a"))

	restored := newTestStore(t, NewRedisPersister(client, testKey))
	require.NoError(t, restored.Load(context.Background()))
	assert.Len(t, restored.Jobs(), 1)
}

func TestStore_ResetRemovesSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := newTestStore(t, NewRedisPersister(client, testKey))
	var changes []ChangeKind
	s.Subscribe(func(c Change) { changes = append(changes, c.Kind) })
	s.AddJob(testJob("a"))
	s.SetWeeklyGoals(models.WeeklyGoals{Applications: 9, Interviews: 4})
	require.True(t, mr.Exists(testKey))

	require.NoError(t, s.Reset(context.Background()))
	assert.False(t, mr.Exists(testKey))
	assert.Empty(t, s.Jobs())
	assert.Equal(t, models.DefaultGoals().Weekly, s.Goals().Weekly)
	assert.Equal(t, ChangeLoaded, changes[len(changes)-1])

	restored := newTestStore(t, NewRedisPersister(client, testKey))
	require.NoError(t, restored.Load(context.Background()))
	assert.Empty(t, restored.Jobs())

	s.AddJob(testJob("b"))
	assert.True(t, mr.Exists(testKey), "writes after a reset persist again")
}

func TestStore_ResetRemoveFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := newTestStore(t, NewRedisPersister(db, testKey))

	mock.ExpectDel(testKey).SetErr(errors.New("READONLY"))
	err := s.Reset(context.Background())
	assert.Equal(t, apperrors.ErrCodePersistenceFailed, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPersister_CorruptSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set(testKey, "garbage"))
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	_, err := NewRedisPersister(client, testKey).Load(context.Background())
	assert.ErrorContains(t, err, "decode snapshot")
}

func TestRedisPersister_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewRedisPersister(db, testKey)
	ctx := context.Background()

	mock.ExpectGet(testKey).SetErr(errors.New("connection refused"))
	_, err := p.Load(ctx)
	assert.ErrorContains(t, err, "connection refused")

	raw, err := json.Marshal(&Snapshot{})
	require.NoError(t, err)
	mock.ExpectSet(testKey, raw, 0).SetErr(errors.New("OOM"))
	assert.ErrorContains(t, p.Save(ctx, &Snapshot{}), "OOM")

	mock.ExpectDel(testKey).SetErr(errors.New("READONLY"))
	assert.ErrorContains(t, p.Remove(ctx), "READONLY")

	assert.NoError(t, mock.ExpectationsWereMet())
}
