package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/repository"
	"verdantia-data/internal/service"
)

// fakeUsers satisfies the slice of UsersRepo the reminder sweep touches.
type fakeUsers struct {
	repository.UsersRepo
	users map[string]*domain.User
}

func (f *fakeUsers) ListUserIDs(context.Context) ([]string, error) {
	var ids []string
	for id := range f.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeUsers) GetUser(_ context.Context, userID string) (*domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) AppendNotification(_ context.Context, userID string, n domain.Notification) error {
	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.NotificationList = append(user.NotificationList, n)
	return nil
}

type nopPusher struct{}

func (nopPusher) Push(context.Context, string, domain.Notification) error { return nil }

func TestReminderSweep_DeliversDailyReminder(t *testing.T) {
	users := &fakeUsers{users: map[string]*domain.User{
		"user-1": {UserID: "user-1", NotificationSettings: []bool{false, false, true}},
		"user-2": {UserID: "user-2", NotificationSettings: []bool{false, false, false}},
	}}
	messaging := service.NewMessagingService(users, nil, nil, nil, nopPusher{},
		time.UTC, zap.NewNop())
	sweeper := NewReminderSweeper(users, messaging, 24*time.Hour, zap.NewNop())

	require.NoError(t, sweeper.SweepOnce(context.Background()))

	require.Len(t, users.users["user-1"].NotificationList, 1)
	assert.Equal(t, "Daily Reminder", users.users["user-1"].NotificationList[0].Title)
	assert.Empty(t, users.users["user-2"].NotificationList)
}

func TestReminderSweep_UserFailureDoesNotBlockOthers(t *testing.T) {
	users := &fakeUsers{users: map[string]*domain.User{
		"user-1": {UserID: "user-1", NotificationSettings: []bool{false, false, true}},
	}}
	// A stale id in the listing (user deleted mid-sweep) must surface as
	// an error without stopping delivery to the remaining users.
	stale := &staleListUsers{fakeUsers: users, extra: "ghost"}
	messaging := service.NewMessagingService(stale, nil, nil, nil, nopPusher{},
		time.UTC, zap.NewNop())
	sweeper := NewReminderSweeper(stale, messaging, 24*time.Hour, zap.NewNop())

	err := sweeper.SweepOnce(context.Background())

	assert.Error(t, err)
	assert.Len(t, users.users["user-1"].NotificationList, 1)
}

type staleListUsers struct {
	*fakeUsers
	extra string
}

func (s *staleListUsers) ListUserIDs(ctx context.Context) ([]string, error) {
	ids, err := s.fakeUsers.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	// Stale id first so the real user proves the sweep continued.
	return append([]string{s.extra}, ids...), nil
}
