package httpapi

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/predictor"
	"verdantia-data/internal/repository"
	"verdantia-data/internal/service"
	"verdantia-data/internal/telemetry"
)

// SectorHandler serves every /sector/* route: ingestion, reads, settings,
// exports and the sector lifecycle.
type SectorHandler struct {
	ingest    *service.IngestService
	sectorSvc *service.SectorService
	store     *telemetry.Store
	sectors   repository.SectorsRepo
	anomalies repository.AnomaliesRepo
	logger    *zap.Logger
}

func NewSectorHandler(
	ingest *service.IngestService,
	sectorSvc *service.SectorService,
	store *telemetry.Store,
	sectors repository.SectorsRepo,
	anomalies repository.AnomaliesRepo,
	logger *zap.Logger,
) *SectorHandler {
	return &SectorHandler{
		ingest:    ingest,
		sectorSvc: sectorSvc,
		store:     store,
		sectors:   sectors,
		anomalies: anomalies,
		logger:    logger,
	}
}

func (h *SectorHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("not found"))
	case errors.Is(err, repository.ErrDeviceLinked):
		writeJSON(w, http.StatusConflict, Fail("device already linked"))
	case errors.Is(err, predictor.ErrBadResponse):
		writeJSON(w, http.StatusBadGateway, Fail("model server returned a malformed response"))
	case errors.Is(err, predictor.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusBadGateway, Fail("model server unavailable"))
	default:
		h.logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}

// UpdateParameterData is the ingestion entrypoint for device submissions.
func (h *SectorHandler) UpdateParameterData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectorID   string             `json:"sectorId"`
		Parameters map[string]float64 `json:"parameters"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.SectorID == "" || len(req.Parameters) == 0 {
		writeJSON(w, http.StatusBadRequest, Fail("sectorId and parameters are required"))
		return
	}

	if err := h.ingest.Ingest(r.Context(), req.SectorID, req.Parameters); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("data saved"))
}

func (h *SectorHandler) GetLatestData(w http.ResponseWriter, r *http.Request) {
	sectorID := pathTail(r.URL.Path, "/sector/getLatestData")
	if sectorID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sector id is required"))
		return
	}
	snap, err := h.store.Snapshot(r.Context(), sectorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(snap))
}

func (h *SectorHandler) GetSectorStatus(w http.ResponseWriter, r *http.Request) {
	sectorID := pathTail(r.URL.Path, "/sector/getSectorStatus")
	if sectorID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sector id is required"))
		return
	}
	snap, err := h.store.Snapshot(r.Context(), sectorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := snap.Status
	if status == "" {
		status = domain.StatusOffline
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"status": status}))
}

func (h *SectorHandler) GetParameterSettings(w http.ResponseWriter, r *http.Request) {
	sectorID := pathTail(r.URL.Path, "/sector/getParameterSettings")
	settings, err := h.sectors.GetParameterSettings(r.Context(), sectorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(settings))
}

// UpdateParameterSettings merges the submitted subset into the stored
// settings; parameters the request omits keep their ranges.
func (h *SectorHandler) UpdateParameterSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectorID string                `json:"sectorId"`
		Settings map[string][2]float64 `json:"settings"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.SectorID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sectorId is required"))
		return
	}
	for name, bounds := range req.Settings {
		if bounds[0] > bounds[1] {
			writeJSON(w, http.StatusBadRequest, Fail("invalid range for "+name))
			return
		}
	}
	if err := h.sectors.MergeParameterSettings(r.Context(), req.SectorID, req.Settings); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("settings updated"))
}

func (h *SectorHandler) GetTriggerSettings(w http.ResponseWriter, r *http.Request) {
	sectorID := pathTail(r.URL.Path, "/sector/getTriggerSettings")
	settings, err := h.sectors.GetTriggerSettings(r.Context(), sectorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(settings))
}

func (h *SectorHandler) UpdateTriggerSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectorID string          `json:"sectorId"`
		Settings map[string]bool `json:"settings"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.SectorID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sectorId is required"))
		return
	}
	if err := h.sectors.MergeTriggerSettings(r.Context(), req.SectorID, req.Settings); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("settings updated"))
}

type rangeRequest struct {
	SectorID string `json:"sectorId"`
	Interval string `json:"interval"` // "daily" or "monthly"
	Date     string `json:"date"`     // YYYY-MM-DD for daily, YYYY-MM for monthly
}

// GetParameterData reads one day or one month of partitioned readings.
// A period with no data returns an empty document, not an error.
func (h *SectorHandler) GetParameterData(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := readBodyJSON(r, &req); err != nil || req.SectorID == "" || req.Date == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sectorId and date are required"))
		return
	}

	var doc domain.DayDocument
	var err error
	switch req.Interval {
	case "monthly":
		doc, err = h.store.ReadMonth(r.Context(), req.SectorID, req.Date)
	default:
		doc, err = h.store.ReadDay(r.Context(), req.SectorID, req.Date)
		if errors.Is(err, telemetry.ErrDayNotFound) {
			doc, err = domain.DayDocument{}, nil
		}
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(doc))
}

// GetAnomalyData lists the sector's anomaly records inside the period.
func (h *SectorHandler) GetAnomalyData(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := readBodyJSON(r, &req); err != nil || req.SectorID == "" || req.Date == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sectorId and date are required"))
		return
	}

	start, end, err := periodBounds(req.Interval, req.Date, h.store.Location())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid date"))
		return
	}
	records, err := h.anomalies.ListBySector(r.Context(), req.SectorID, start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if records == nil {
		records = []*domain.AnomalyRecord{}
	}
	writeJSON(w, http.StatusOK, Ok(records))
}

func periodBounds(interval, date string, loc *time.Location) (time.Time, time.Time, error) {
	if interval == "monthly" {
		start, err := time.ParseInLocation(telemetry.MonthLayout, date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, start.AddDate(0, 1, 0), nil
	}
	start, err := time.ParseInLocation(telemetry.DayLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

// GetDataForExport returns the raw day document the export screens preview.
func (h *SectorHandler) GetDataForExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectorID string `json:"sectorId"`
		Date     string `json:"date"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.SectorID == "" || req.Date == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sectorId and date are required"))
		return
	}
	doc, err := h.store.ReadDay(r.Context(), req.SectorID, req.Date)
	if errors.Is(err, telemetry.ErrDayNotFound) {
		doc, err = domain.DayDocument{}, nil
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(doc))
}

// ExportCsv streams one day of readings as a CSV attachment.
func (h *SectorHandler) ExportCsv(w http.ResponseWriter, r *http.Request) {
	doc, filename, ok := h.exportDoc(w, r)
	if !ok {
		return
	}
	data, err := writeCsv(doc)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ExportXlsx streams one day of readings as an Excel attachment.
func (h *SectorHandler) ExportXlsx(w http.ResponseWriter, r *http.Request) {
	doc, filename, ok := h.exportDoc(w, r)
	if !ok {
		return
	}
	data, err := writeXlsx(doc)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *SectorHandler) exportDoc(w http.ResponseWriter, r *http.Request) (domain.DayDocument, string, bool) {
	var req struct {
		SectorID string `json:"sectorId"`
		Date     string `json:"date"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.SectorID == "" || req.Date == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sectorId and date are required"))
		return nil, "", false
	}
	doc, err := h.store.ReadDay(r.Context(), req.SectorID, req.Date)
	if errors.Is(err, telemetry.ErrDayNotFound) {
		doc, err = domain.DayDocument{}, nil
	}
	if err != nil {
		h.writeError(w, err)
		return nil, "", false
	}
	return doc, req.SectorID + "_" + req.Date, true
}

// AddSector creates a sector bound to a free device.
func (h *SectorHandler) AddSector(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FarmID   string `json:"farmId"`
		DeviceID string `json:"deviceId"`
		UserID   string `json:"userId"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.FarmID == "" || req.DeviceID == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("farmId, deviceId and userId are required"))
		return
	}
	sector, err := h.sectorSvc.CreateSector(r.Context(), req.FarmID, req.DeviceID, req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sector))
}

// DeleteSector tears the sector down; repeating the call succeeds.
func (h *SectorHandler) DeleteSector(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectorID string `json:"sectorId"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.SectorID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("sectorId is required"))
		return
	}
	if err := h.sectorSvc.DeleteSectorCascade(r.Context(), req.SectorID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("sector deleted"))
}
