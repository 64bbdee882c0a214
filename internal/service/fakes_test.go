package service

import (
	"context"
	"time"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/repository"
)

// In-memory repository fakes shared by the service tests.

type fakeSectorsRepo struct {
	sectors      map[string]*domain.Sector
	triggerSaves []map[string]bool
}

func newFakeSectorsRepo() *fakeSectorsRepo {
	return &fakeSectorsRepo{sectors: make(map[string]*domain.Sector)}
}

var _ repository.SectorsRepo = (*fakeSectorsRepo)(nil)

func (f *fakeSectorsRepo) CreateSector(_ context.Context, sector *domain.Sector) error {
	f.sectors[sector.SectorID] = sector
	return nil
}

func (f *fakeSectorsRepo) GetSector(_ context.Context, sectorID string) (*domain.Sector, error) {
	sector, ok := f.sectors[sectorID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return sector, nil
}

func (f *fakeSectorsRepo) DeleteSector(_ context.Context, sectorID string) error {
	delete(f.sectors, sectorID)
	return nil
}

func (f *fakeSectorsRepo) ListSectorIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id := range f.sectors {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeSectorsRepo) GetParameterSettings(ctx context.Context, sectorID string) (map[string][2]float64, error) {
	sector, err := f.GetSector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	return sector.ParameterSettings, nil
}

func (f *fakeSectorsRepo) MergeParameterSettings(ctx context.Context, sectorID string, partial map[string][2]float64) error {
	sector, err := f.GetSector(ctx, sectorID)
	if err != nil {
		return err
	}
	for k, v := range partial {
		sector.ParameterSettings[k] = v
	}
	return nil
}

func (f *fakeSectorsRepo) GetTriggerSettings(ctx context.Context, sectorID string) (map[string]bool, error) {
	sector, err := f.GetSector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(sector.TriggerSettings))
	for k, v := range sector.TriggerSettings {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSectorsRepo) MergeTriggerSettings(ctx context.Context, sectorID string, partial map[string]bool) error {
	sector, err := f.GetSector(ctx, sectorID)
	if err != nil {
		return err
	}
	for k, v := range partial {
		sector.TriggerSettings[k] = v
	}
	f.triggerSaves = append(f.triggerSaves, partial)
	return nil
}

func (f *fakeSectorsRepo) AppendAnomaly(ctx context.Context, sectorID, anomalyID string) error {
	sector, err := f.GetSector(ctx, sectorID)
	if err != nil {
		return err
	}
	sector.AnomalyList = append(sector.AnomalyList, anomalyID)
	return nil
}

func (f *fakeSectorsRepo) AppendPlant(ctx context.Context, sectorID, plantID string) error {
	sector, err := f.GetSector(ctx, sectorID)
	if err != nil {
		return err
	}
	sector.PlantList = append(sector.PlantList, plantID)
	return nil
}

func (f *fakeSectorsRepo) RemovePlant(ctx context.Context, sectorID, plantID string) error {
	sector, err := f.GetSector(ctx, sectorID)
	if err != nil {
		return err
	}
	kept := sector.PlantList[:0]
	for _, id := range sector.PlantList {
		if id != plantID {
			kept = append(kept, id)
		}
	}
	sector.PlantList = kept
	return nil
}

type fakeDevicesRepo struct {
	devices map[string]*domain.Device
}

func newFakeDevicesRepo() *fakeDevicesRepo {
	return &fakeDevicesRepo{devices: make(map[string]*domain.Device)}
}

var _ repository.DevicesRepo = (*fakeDevicesRepo)(nil)

func (f *fakeDevicesRepo) RegisterDevice(_ context.Context, device *domain.Device) error {
	f.devices[device.DeviceID] = device
	return nil
}

func (f *fakeDevicesRepo) GetDevice(_ context.Context, deviceID string) (*domain.Device, error) {
	device, ok := f.devices[deviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return device, nil
}

func (f *fakeDevicesRepo) LinkDevice(_ context.Context, deviceID, sectorID, userID string) error {
	device, ok := f.devices[deviceID]
	if !ok {
		return repository.ErrNotFound
	}
	if device.Linked() {
		return repository.ErrDeviceLinked
	}
	device.LinkSector = &sectorID
	device.LinkUser = &userID
	return nil
}

func (f *fakeDevicesRepo) UnlinkDevice(_ context.Context, deviceID string) error {
	if device, ok := f.devices[deviceID]; ok {
		device.LinkSector = nil
		device.LinkUser = nil
	}
	return nil
}

type fakeUsersRepo struct {
	users map[string]*domain.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[string]*domain.User)}
}

var _ repository.UsersRepo = (*fakeUsersRepo)(nil)

func (f *fakeUsersRepo) RegisterUser(_ context.Context, user *domain.User) error {
	f.users[user.UserID] = user
	return nil
}

func (f *fakeUsersRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsersRepo) ListUserIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id := range f.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeUsersRepo) UpdateMessageToken(ctx context.Context, userID, token string) error {
	user, err := f.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.MessageToken = token
	return nil
}

func (f *fakeUsersRepo) UpdateNotificationSettings(ctx context.Context, userID string, settings []bool) error {
	user, err := f.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.NotificationSettings = settings
	return nil
}

func (f *fakeUsersRepo) AppendNotification(ctx context.Context, userID string, n domain.Notification) error {
	user, err := f.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.NotificationList = append(user.NotificationList, n)
	return nil
}

func (f *fakeUsersRepo) RemoveNotifications(ctx context.Context, userID string, ids []string) error {
	user, err := f.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := user.NotificationList[:0]
	for _, n := range user.NotificationList {
		if !drop[n.ID] {
			kept = append(kept, n)
		}
	}
	user.NotificationList = kept
	return nil
}

type fakeFarmsRepo struct {
	farms map[string]*domain.Farm
}

func newFakeFarmsRepo() *fakeFarmsRepo {
	return &fakeFarmsRepo{farms: make(map[string]*domain.Farm)}
}

var _ repository.FarmsRepo = (*fakeFarmsRepo)(nil)

func (f *fakeFarmsRepo) CreateFarm(_ context.Context, farm *domain.Farm) error {
	f.farms[farm.FarmID] = farm
	return nil
}

func (f *fakeFarmsRepo) GetFarm(_ context.Context, farmID string) (*domain.Farm, error) {
	farm, ok := f.farms[farmID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return farm, nil
}

func (f *fakeFarmsRepo) AppendSector(ctx context.Context, farmID, sectorID string) error {
	farm, err := f.GetFarm(ctx, farmID)
	if err != nil {
		return err
	}
	farm.SectorList = append(farm.SectorList, sectorID)
	return nil
}

func (f *fakeFarmsRepo) RemoveSector(ctx context.Context, farmID, sectorID string) error {
	farm, ok := f.farms[farmID]
	if !ok {
		return nil
	}
	kept := farm.SectorList[:0]
	for _, id := range farm.SectorList {
		if id != sectorID {
			kept = append(kept, id)
		}
	}
	farm.SectorList = kept
	return nil
}

type fakePlantsRepo struct {
	plants map[string]*domain.Plant
}

func newFakePlantsRepo() *fakePlantsRepo {
	return &fakePlantsRepo{plants: make(map[string]*domain.Plant)}
}

var _ repository.PlantsRepo = (*fakePlantsRepo)(nil)

func (f *fakePlantsRepo) AddPlant(_ context.Context, plant *domain.Plant) error {
	f.plants[plant.PlantID] = plant
	return nil
}

func (f *fakePlantsRepo) GetPlant(_ context.Context, plantID string) (*domain.Plant, error) {
	plant, ok := f.plants[plantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return plant, nil
}

func (f *fakePlantsRepo) UpdatePlant(_ context.Context, plant *domain.Plant) error {
	if _, ok := f.plants[plant.PlantID]; !ok {
		return repository.ErrNotFound
	}
	f.plants[plant.PlantID] = plant
	return nil
}

func (f *fakePlantsRepo) DeletePlant(_ context.Context, plantID string) error {
	delete(f.plants, plantID)
	return nil
}

func (f *fakePlantsRepo) ListBySector(_ context.Context, sectorID string) ([]*domain.Plant, error) {
	var out []*domain.Plant
	for _, plant := range f.plants {
		if plant.SectorID == sectorID {
			out = append(out, plant)
		}
	}
	return out, nil
}

func (f *fakePlantsRepo) DeleteBySector(_ context.Context, sectorID string) error {
	for id, plant := range f.plants {
		if plant.SectorID == sectorID {
			delete(f.plants, id)
		}
	}
	return nil
}

type fakeAnomaliesRepo struct {
	records map[string]*domain.AnomalyRecord
}

func newFakeAnomaliesRepo() *fakeAnomaliesRepo {
	return &fakeAnomaliesRepo{records: make(map[string]*domain.AnomalyRecord)}
}

var _ repository.AnomaliesRepo = (*fakeAnomaliesRepo)(nil)

func (f *fakeAnomaliesRepo) CreateAnomaly(_ context.Context, rec *domain.AnomalyRecord) error {
	f.records[rec.AnomalyID] = rec
	return nil
}

func (f *fakeAnomaliesRepo) GetAnomaly(_ context.Context, anomalyID string) (*domain.AnomalyRecord, error) {
	rec, ok := f.records[anomalyID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (f *fakeAnomaliesRepo) ListBySector(_ context.Context, sectorID string, start, end time.Time) ([]*domain.AnomalyRecord, error) {
	var out []*domain.AnomalyRecord
	for _, rec := range f.records {
		if rec.SectorID == sectorID && !rec.CreatedAt.Before(start) && rec.CreatedAt.Before(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeAnomaliesRepo) DeleteBySector(_ context.Context, sectorID string) error {
	for id, rec := range f.records {
		if rec.SectorID == sectorID {
			delete(f.records, id)
		}
	}
	return nil
}

type fakePusher struct {
	pushed []domain.Notification
}

var _ Pusher = (*fakePusher)(nil)

func (f *fakePusher) Push(_ context.Context, _ string, n domain.Notification) error {
	f.pushed = append(f.pushed, n)
	return nil
}
