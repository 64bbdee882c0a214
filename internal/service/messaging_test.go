package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"verdantia-data/internal/domain"
)

func newTestMessaging(t *testing.T) (*MessagingService, *fakeUsersRepo, *fakeFarmsRepo, *fakeSectorsRepo, *fakePlantsRepo, *fakePusher) {
	t.Helper()
	users := newFakeUsersRepo()
	farms := newFakeFarmsRepo()
	sectors := newFakeSectorsRepo()
	plants := newFakePlantsRepo()
	pusher := &fakePusher{}
	svc := NewMessagingService(users, farms, sectors, plants, pusher, time.UTC, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	}
	return svc, users, farms, sectors, plants, pusher
}

func TestSaveNotification_StampsAndPushes(t *testing.T) {
	svc, users, _, _, _, pusher := newTestMessaging(t)
	users.users["user-1"] = &domain.User{UserID: "user-1", MessageToken: "tok"}

	n, err := svc.SaveNotification(context.Background(), "user-1", "Hello", "body", domain.NotificationNormal)

	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "2026-08-28", n.Date)
	assert.Equal(t, "09:30:00", n.Time)
	require.Len(t, users.users["user-1"].NotificationList, 1)
	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, "Hello", pusher.pushed[0].Title)
}

func TestSaveNotification_NoTokenSkipsPush(t *testing.T) {
	svc, users, _, _, _, pusher := newTestMessaging(t)
	users.users["user-1"] = &domain.User{UserID: "user-1"}

	_, err := svc.SaveNotification(context.Background(), "user-1", "Hello", "body", domain.NotificationNormal)

	require.NoError(t, err)
	assert.Len(t, users.users["user-1"].NotificationList, 1)
	assert.Empty(t, pusher.pushed)
}

func TestSendAlert_RespectsOptOut(t *testing.T) {
	svc, users, _, _, _, pusher := newTestMessaging(t)
	users.users["user-1"] = &domain.User{
		UserID:               "user-1",
		MessageToken:         "tok",
		NotificationSettings: []bool{true, false, true},
	}

	err := svc.SendAlert(context.Background(), "user-1", "Anomaly Alert", "something is off")

	require.NoError(t, err)
	assert.Empty(t, users.users["user-1"].NotificationList)
	assert.Empty(t, pusher.pushed)
}

func TestSendAlert_OptedIn(t *testing.T) {
	svc, users, _, _, _, _ := newTestMessaging(t)
	users.users["user-1"] = &domain.User{
		UserID:               "user-1",
		MessageToken:         "tok",
		NotificationSettings: []bool{false, true, false},
	}

	err := svc.SendAlert(context.Background(), "user-1", "Anomaly Alert", "something is off")

	require.NoError(t, err)
	require.Len(t, users.users["user-1"].NotificationList, 1)
	assert.Equal(t, domain.NotificationImportant, users.users["user-1"].NotificationList[0].Type)
}

func TestCheckConditions_DueDateAndDailyReminder(t *testing.T) {
	svc, users, farms, sectors, plants, _ := newTestMessaging(t)
	users.users["user-1"] = &domain.User{
		UserID:               "user-1",
		MessageToken:         "tok",
		FarmList:             []string{"farm-1"},
		NotificationSettings: []bool{true, true, true},
	}
	farms.farms["farm-1"] = &domain.Farm{FarmID: "farm-1", SectorList: []string{"sector-1"}}
	sectors.sectors["sector-1"] = &domain.Sector{SectorID: "sector-1"}
	plants.plants["plant-1"] = &domain.Plant{
		PlantID: "plant-1", SectorID: "sector-1", PlantName: "Basil",
		ImportantDates: []domain.ImportantDate{
			{Date: "2026-08-28", Note: "transplant seedlings"},
			{Date: "2026-09-04", Note: "harvest"},
		},
	}

	err := svc.CheckConditions(context.Background(), "user-1")

	require.NoError(t, err)
	list := users.users["user-1"].NotificationList
	require.Len(t, list, 2)
	assert.Equal(t, "Task due: Basil", list[0].Title)
	assert.Equal(t, "transplant seedlings", list[0].Content)
	assert.Equal(t, "Daily Reminder", list[1].Title)
}

func TestCheckConditions_AllDisabled(t *testing.T) {
	svc, users, farms, _, plants, _ := newTestMessaging(t)
	users.users["user-1"] = &domain.User{
		UserID:               "user-1",
		FarmList:             []string{"farm-1"},
		NotificationSettings: []bool{false, false, false},
	}
	farms.farms["farm-1"] = &domain.Farm{FarmID: "farm-1", SectorList: []string{"sector-1"}}
	plants.plants["plant-1"] = &domain.Plant{
		PlantID: "plant-1", SectorID: "sector-1",
		ImportantDates: []domain.ImportantDate{{Date: "2026-08-28", Note: "water"}},
	}

	err := svc.CheckConditions(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Empty(t, users.users["user-1"].NotificationList)
}
