package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/repository"
)

// CrudHandler serves the thin entity routes the mobile app needs around
// the telemetry pipeline: users, devices, farms and plants.
type CrudHandler struct {
	users   repository.UsersRepo
	devices repository.DevicesRepo
	farms   repository.FarmsRepo
	plants  repository.PlantsRepo
	sectors repository.SectorsRepo
	logger  *zap.Logger
	now     func() time.Time
}

func NewCrudHandler(
	users repository.UsersRepo,
	devices repository.DevicesRepo,
	farms repository.FarmsRepo,
	plants repository.PlantsRepo,
	sectors repository.SectorsRepo,
	logger *zap.Logger,
) *CrudHandler {
	return &CrudHandler{
		users:   users,
		devices: devices,
		farms:   farms,
		plants:  plants,
		sectors: sectors,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *CrudHandler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Fail("not found"))
		return
	}
	h.logger.Error("Request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
}

// RegisterUser creates (or replaces) the profile with every notification
// kind enabled, the app's starting state.
func (h *CrudHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       string `json:"userId"`
		MessageToken string `json:"messageToken"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("userId is required"))
		return
	}
	user := &domain.User{
		UserID:               req.UserID,
		MessageToken:         req.MessageToken,
		FarmList:             []string{},
		NotificationSettings: []bool{true, true, true},
		NotificationList:     []domain.Notification{},
	}
	if err := h.users.RegisterUser(r.Context(), user); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(user))
}

func (h *CrudHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := pathTail(r.URL.Path, "/user/getUser")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user id is required"))
		return
	}
	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(user))
}

func (h *CrudHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceName     string `json:"deviceName"`
		DeviceLocation string `json:"deviceLocation"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.DeviceName == "" {
		writeJSON(w, http.StatusBadRequest, Fail("deviceName is required"))
		return
	}
	device := &domain.Device{
		DeviceID:       uuid.New().String(),
		DeviceName:     req.DeviceName,
		DeviceLocation: req.DeviceLocation,
		CreatedAt:      h.now(),
	}
	if err := h.devices.RegisterDevice(r.Context(), device); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(device))
}

func (h *CrudHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := pathTail(r.URL.Path, "/device/getDevice")
	if deviceID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("device id is required"))
		return
	}
	device, err := h.devices.GetDevice(r.Context(), deviceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(device))
}

// CreateFarm persists the farm and registers it on the owner's farm list.
func (h *CrudHandler) CreateFarm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FarmName string `json:"farmName"`
		UserID   string `json:"userId"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.FarmName == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("farmName and userId are required"))
		return
	}

	user, err := h.users.GetUser(r.Context(), req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	farm := &domain.Farm{
		FarmID:     uuid.New().String(),
		FarmName:   req.FarmName,
		CreatedAt:  h.now(),
		SectorList: []string{},
	}
	if err := h.farms.CreateFarm(r.Context(), farm); err != nil {
		h.writeError(w, err)
		return
	}

	user.FarmList = append(user.FarmList, farm.FarmID)
	if err := h.users.RegisterUser(r.Context(), user); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(farm))
}

func (h *CrudHandler) GetFarm(w http.ResponseWriter, r *http.Request) {
	farmID := pathTail(r.URL.Path, "/farm/getFarm")
	if farmID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("farm id is required"))
		return
	}
	farm, err := h.farms.GetFarm(r.Context(), farmID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(farm))
}

// AddPlant creates the plant and links it from the sector's plant list.
func (h *CrudHandler) AddPlant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectorID       string                 `json:"sectorId"`
		PlantName      string                 `json:"plantName"`
		Status         string                 `json:"status"`
		ImportantDates []domain.ImportantDate `json:"importantDates"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.SectorID == "" || req.PlantName == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sectorId and plantName are required"))
		return
	}

	plant := &domain.Plant{
		PlantID:        uuid.New().String(),
		SectorID:       req.SectorID,
		PlantName:      req.PlantName,
		Status:         req.Status,
		CreatedAt:      h.now(),
		Records:        []domain.PlantRecord{},
		ImportantDates: req.ImportantDates,
	}
	if err := h.plants.AddPlant(r.Context(), plant); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.sectors.AppendPlant(r.Context(), req.SectorID, plant.PlantID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(plant))
}

func (h *CrudHandler) UpdatePlant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlantID        string                 `json:"plantId"`
		PlantName      string                 `json:"plantName"`
		Status         string                 `json:"status"`
		Records        []domain.PlantRecord   `json:"records"`
		ImportantDates []domain.ImportantDate `json:"importantDates"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.PlantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("plantId is required"))
		return
	}

	plant, err := h.plants.GetPlant(r.Context(), req.PlantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req.PlantName != "" {
		plant.PlantName = req.PlantName
	}
	if req.Status != "" {
		plant.Status = req.Status
	}
	if req.Records != nil {
		plant.Records = req.Records
	}
	if req.ImportantDates != nil {
		plant.ImportantDates = req.ImportantDates
	}
	if err := h.plants.UpdatePlant(r.Context(), plant); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(plant))
}

// DeletePlant removes the plant and its sector-list entry; both steps
// tolerate an earlier partial delete.
func (h *CrudHandler) DeletePlant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlantID string `json:"plantId"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.PlantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("plantId is required"))
		return
	}

	plant, err := h.plants.GetPlant(r.Context(), req.PlantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Ok("plant deleted"))
			return
		}
		h.writeError(w, err)
		return
	}
	if err := h.plants.DeletePlant(r.Context(), req.PlantID); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.sectors.RemovePlant(r.Context(), plant.SectorID, req.PlantID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("plant deleted"))
}

func (h *CrudHandler) GetPlants(w http.ResponseWriter, r *http.Request) {
	sectorID := pathTail(r.URL.Path, "/plant/getPlants")
	if sectorID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sector id is required"))
		return
	}
	plants, err := h.plants.ListBySector(r.Context(), sectorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if plants == nil {
		plants = []*domain.Plant{}
	}
	writeJSON(w, http.StatusOK, Ok(plants))
}
