package domain

// Notification settings slots, kept positional for app compatibility:
// [0] important-date reminders, [1] anomaly alerts, [2] daily reminder.
const (
	NotifyImportantDates = 0
	NotifyAnomalyAlerts  = 1
	NotifyDailyReminder  = 2
)

// User corresponds to the users table. NotificationSettings and
// NotificationList are JSONB columns.
type User struct {
	UserID       string `db:"user_id"`
	MessageToken string `db:"message_token"`

	FarmList             []string       `db:"farm_list"`
	NotificationSettings []bool         `db:"notification_settings"`
	NotificationList     []Notification `db:"notification_list"`
}

// NotificationEnabled reports whether the given settings slot is on.
// Missing slots default to off.
func (u *User) NotificationEnabled(slot int) bool {
	return slot >= 0 && slot < len(u.NotificationSettings) && u.NotificationSettings[slot]
}

// Notification is one entry of a user's notification list.
type Notification struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"` // YYYY-MM-DD in the partition zone
	Time    string `json:"time"` // HH:MM:SS in the partition zone
	Type    string `json:"type"` // "normal" or "important"
}

// Notification types.
const (
	NotificationNormal    = "normal"
	NotificationImportant = "important"
)
