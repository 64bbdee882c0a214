package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/repository"
	"verdantia-data/internal/service"
)

// MessageHandler serves the /message/* routes.
type MessageHandler struct {
	users     repository.UsersRepo
	messaging *service.MessagingService
	logger    *zap.Logger
}

func NewMessageHandler(users repository.UsersRepo, messaging *service.MessagingService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{users: users, messaging: messaging, logger: logger}
}

func (h *MessageHandler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Fail("not found"))
		return
	}
	h.logger.Error("Request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
}

func (h *MessageHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	userID := pathTail(r.URL.Path, "/message/getNotification")
	if userID == "" {
		userID = r.URL.Query().Get("userId")
	}
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user id is required"))
		return
	}
	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	list := user.NotificationList
	if list == nil {
		list = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *MessageHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          string   `json:"userId"`
		NotificationIDs []string `json:"notificationIds"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("userId is required"))
		return
	}
	if err := h.users.RemoveNotifications(r.Context(), req.UserID, req.NotificationIDs); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("notifications deleted"))
}

func (h *MessageHandler) SendAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.UserID == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, Fail("userId and title are required"))
		return
	}
	if err := h.messaging.SendAlert(r.Context(), req.UserID, req.Title, req.Content); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("alert processed"))
}

// CheckAndSaveNotifications runs the user's daily checks on demand (the
// app calls this on launch; the reminder sweeper covers idle users).
func (h *MessageHandler) CheckAndSaveNotifications(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("userId is required"))
		return
	}
	if err := h.messaging.CheckConditions(r.Context(), req.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("notifications checked"))
}

func (h *MessageHandler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Settings []bool `json:"settings"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.UserID == "" || len(req.Settings) == 0 {
		writeJSON(w, http.StatusBadRequest, Fail("userId and settings are required"))
		return
	}
	if err := h.users.UpdateNotificationSettings(r.Context(), req.UserID, req.Settings); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("settings updated"))
}

func (h *MessageHandler) UpdateMessageToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Token  string `json:"token"`
	}
	if err := readBodyJSON(r, &req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("userId is required"))
		return
	}
	if err := h.users.UpdateMessageToken(r.Context(), req.UserID, req.Token); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("token updated"))
}
