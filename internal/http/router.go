package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard library ServeMux; the route surface is small
// enough that a third-party router buys nothing.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) handle(pattern, method string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	})
}

// RegisterSectorRoutes wires the /sector/* surface.
func (r *Router) RegisterSectorRoutes(h *SectorHandler) {
	r.handle("/sector/updateParameterData", http.MethodPost, h.UpdateParameterData)
	r.handle("/sector/getLatestData/", http.MethodGet, h.GetLatestData)
	r.handle("/sector/getSectorStatus/", http.MethodGet, h.GetSectorStatus)
	r.handle("/sector/getParameterSettings/", http.MethodGet, h.GetParameterSettings)
	r.handle("/sector/updateParameterSettings", http.MethodPost, h.UpdateParameterSettings)
	r.handle("/sector/getTriggerSettings/", http.MethodGet, h.GetTriggerSettings)
	r.handle("/sector/updateTriggerSettings", http.MethodPost, h.UpdateTriggerSettings)
	r.handle("/sector/getParameterData", http.MethodPost, h.GetParameterData)
	r.handle("/sector/getAnomalyData", http.MethodPost, h.GetAnomalyData)
	r.handle("/sector/getDataForExport", http.MethodPost, h.GetDataForExport)
	r.handle("/sector/exportCsv", http.MethodPost, h.ExportCsv)
	r.handle("/sector/exportXlsx", http.MethodPost, h.ExportXlsx)
	r.handle("/sector/addSector", http.MethodPost, h.AddSector)
	r.handle("/sector/deleteSector", http.MethodDelete, h.DeleteSector)
}

// RegisterMessageRoutes wires the /message/* surface.
func (r *Router) RegisterMessageRoutes(h *MessageHandler) {
	r.handle("/message/getNotification/", http.MethodGet, h.GetNotification)
	r.handle("/message/deleteNotification", http.MethodPost, h.DeleteNotification)
	r.handle("/message/sendAlert", http.MethodPost, h.SendAlert)
	r.handle("/message/checkAndSaveNotifications", http.MethodPost, h.CheckAndSaveNotifications)
	r.handle("/message/updateNotificationSettings", http.MethodPost, h.UpdateNotificationSettings)
	r.handle("/message/updateMessageToken", http.MethodPost, h.UpdateMessageToken)
}

// RegisterEntityRoutes wires the thin CRUD surface.
func (r *Router) RegisterEntityRoutes(h *CrudHandler) {
	r.handle("/user/register", http.MethodPost, h.RegisterUser)
	r.handle("/user/getUser/", http.MethodGet, h.GetUser)
	r.handle("/device/register", http.MethodPost, h.RegisterDevice)
	r.handle("/device/getDevice/", http.MethodGet, h.GetDevice)
	r.handle("/farm/create", http.MethodPost, h.CreateFarm)
	r.handle("/farm/getFarm/", http.MethodGet, h.GetFarm)
	r.handle("/plant/addPlant", http.MethodPost, h.AddPlant)
	r.handle("/plant/updatePlant", http.MethodPost, h.UpdatePlant)
	r.handle("/plant/deletePlant", http.MethodDelete, h.DeletePlant)
	r.handle("/plant/getPlants/", http.MethodGet, h.GetPlants)
}

// RegisterHealthRoute exposes the liveness probe.
func (r *Router) RegisterHealthRoute() {
	r.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
}
