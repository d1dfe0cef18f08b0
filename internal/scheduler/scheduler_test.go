package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackuper struct {
	mock.Mock
}

func (m *mockBackuper) Backup(_ context.Context, dir string, keep int) (string, error) {
	args := m.Called(dir, keep)
	return args.String(0), args.Error(1)
}

type mockMirror struct {
	mock.Mock
}

func (m *mockMirror) Upload(_ context.Context, localPath string) (string, error) {
	args := m.Called(localPath)
	return args.String(0), args.Error(1)
}

type mockCleaner struct {
	mock.Mock
}

func (m *mockCleaner) Cleanup(_ context.Context, retentionDays int) (int64, error) {
	args := m.Called(retentionDays)
	return args.Get(0).(int64), args.Error(1)
}

func TestBackupJob_MirrorsBackup(t *testing.T) {
	store := &mockBackuper{}
	store.On("Backup", "backups", 7).Return("backups/bot-1.db", nil).Once()
	mirror := &mockMirror{}
	mirror.On("Upload", "backups/bot-1.db").Return("backups/bot-1.db", nil).Once()

	path, err := NewBackupJob(store, mirror, "backups", 7, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backups/bot-1.db", path)
	store.AssertExpectations(t)
	mirror.AssertExpectations(t)
}

func TestBackupJob_MirrorFailureKeepsLocalBackup(t *testing.T) {
	store := &mockBackuper{}
	store.On("Backup", "backups", 7).Return("backups/bot-1.db", nil)
	mirror := &mockMirror{}
	mirror.On("Upload", "backups/bot-1.db").Return("", errors.New("access denied"))

	path, err := NewBackupJob(store, mirror, "backups", 7, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backups/bot-1.db", path)
}

func TestBackupJob_BackupFailureSkipsMirror(t *testing.T) {
	store := &mockBackuper{}
	store.On("Backup", "backups", 3).Return("", errors.New("disk full"))
	mirror := &mockMirror{}

	_, err := NewBackupJob(store, mirror, "backups", 3, zerolog.Nop()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	mirror.AssertNotCalled(t, "Upload", mock.Anything)
}

func TestBackupJob_WithoutMirror(t *testing.T) {
	store := &mockBackuper{}
	store.On("Backup", "backups", 7).Return("backups/bot-1.db", nil)

	_, err := NewBackupJob(store, nil, "backups", 7, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
}

func TestCleanupJob(t *testing.T) {
	cleaner := &mockCleaner{}
	cleaner.On("Cleanup", 30).Return(int64(12), nil).Once()

	deleted, err := NewCleanupJob(cleaner, 30, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)

	failing := &mockCleaner{}
	failing.On("Cleanup", 30).Return(int64(0), errors.New("locked"))
	_, err = NewCleanupJob(failing, 30, zerolog.Nop()).Run(context.Background())
	assert.Error(t, err)
}

func TestSchedules(t *testing.T) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	cleanup, err := parser.Parse(CleanupSpec)
	require.NoError(t, err)
	from := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC), cleanup.Next(from))

	backup, err := parser.Parse(BackupSpec)
	require.NoError(t, err)
	assert.Equal(t, from.Add(24*time.Hour), backup.Next(from))
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	s := NewScheduler(
		NewBackupJob(&mockBackuper{}, nil, "backups", 7, zerolog.Nop()),
		NewCleanupJob(&mockCleaner{}, 30, zerolog.Nop()),
		zerolog.Nop(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return len(s.cron.Entries()) == 2 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
