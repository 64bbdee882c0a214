package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/repository"
)

// Pusher delivers a notification to the user's device via their message
// token. Delivery is best-effort; the notification list is the durable copy.
type Pusher interface {
	Push(ctx context.Context, token string, n domain.Notification) error
}

// LogPusher records deliveries in the service log. It stands in until a
// real push provider is configured.
type LogPusher struct {
	logger *zap.Logger
}

func NewLogPusher(logger *zap.Logger) *LogPusher {
	return &LogPusher{logger: logger}
}

var _ Pusher = (*LogPusher)(nil)

func (p *LogPusher) Push(_ context.Context, token string, n domain.Notification) error {
	p.logger.Info("Push notification",
		zap.String("token", token),
		zap.String("title", n.Title),
		zap.String("type", n.Type),
	)
	return nil
}

// MessagingService owns the notification list and the reminder checks.
type MessagingService struct {
	users   repository.UsersRepo
	farms   repository.FarmsRepo
	sectors repository.SectorsRepo
	plants  repository.PlantsRepo
	pusher  Pusher
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

func NewMessagingService(
	users repository.UsersRepo,
	farms repository.FarmsRepo,
	sectors repository.SectorsRepo,
	plants repository.PlantsRepo,
	pusher Pusher,
	loc *time.Location,
	logger *zap.Logger,
) *MessagingService {
	return &MessagingService{
		users:   users,
		farms:   farms,
		sectors: sectors,
		plants:  plants,
		pusher:  pusher,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

// SaveNotification appends a stamped notification to the user's list and
// pushes it. Push failures are logged, never propagated.
func (s *MessagingService) SaveNotification(ctx context.Context, userID, title, content, typ string) (domain.Notification, error) {
	now := s.now().In(s.loc)
	n := domain.Notification{
		ID:      uuid.New().String(),
		Title:   title,
		Content: content,
		Date:    now.Format("2006-01-02"),
		Time:    now.Format("15:04:05"),
		Type:    typ,
	}

	if err := s.users.AppendNotification(ctx, userID, n); err != nil {
		return domain.Notification{}, fmt.Errorf("failed to save notification: %w", err)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Notification saved but push skipped",
			zap.String("user_id", userID), zap.Error(err))
		return n, nil
	}
	if user.MessageToken != "" {
		if err := s.pusher.Push(ctx, user.MessageToken, n); err != nil {
			s.logger.Warn("Push delivery failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
	return n, nil
}

// SendAlert delivers an anomaly alert if the user opted in; opted-out
// users get neither the push nor the list entry.
func (s *MessagingService) SendAlert(ctx context.Context, userID, title, content string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.NotificationEnabled(domain.NotifyAnomalyAlerts) {
		return nil
	}
	_, err = s.SaveNotification(ctx, userID, title, content, domain.NotificationImportant)
	return err
}

// CheckConditions runs one user's daily checks: important plant dates due
// today, plus the daily reminder. Both honor the user's settings slots.
func (s *MessagingService) CheckConditions(ctx context.Context, userID string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	today := s.now().In(s.loc).Format("2006-01-02")

	if user.NotificationEnabled(domain.NotifyImportantDates) {
		if err := s.notifyDueDates(ctx, user, today); err != nil {
			return err
		}
	}

	if user.NotificationEnabled(domain.NotifyDailyReminder) {
		_, err := s.SaveNotification(ctx, userID,
			"Daily Reminder",
			"Remember to check on your sectors today!",
			domain.NotificationNormal,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// notifyDueDates walks user -> farms -> sectors -> plants and raises one
// notification per important date that falls on today.
func (s *MessagingService) notifyDueDates(ctx context.Context, user *domain.User, today string) error {
	for _, farmID := range user.FarmList {
		farm, err := s.farms.GetFarm(ctx, farmID)
		if err != nil {
			if err == repository.ErrNotFound {
				continue
			}
			return err
		}
		for _, sectorID := range farm.SectorList {
			plants, err := s.plants.ListBySector(ctx, sectorID)
			if err != nil {
				return err
			}
			for _, plant := range plants {
				for _, date := range plant.ImportantDates {
					if date.Date != today {
						continue
					}
					_, err := s.SaveNotification(ctx, user.UserID,
						fmt.Sprintf("Task due: %s", plant.PlantName),
						date.Note,
						domain.NotificationImportant,
					)
					if err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
