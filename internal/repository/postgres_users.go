package repository

import (
	"context"
	"database/sql"
	"fmt"

	"verdantia-data/internal/domain"
)

// PostgresUsersRepository users table implementation.
type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepo = (*PostgresUsersRepository)(nil)

// RegisterUser upserts the profile; re-registering replaces it the same
// way the mobile client expects.
func (r *PostgresUsersRepository) RegisterUser(ctx context.Context, user *domain.User) error {
	farmsJSON, err := marshalJSONB(user.FarmList)
	if err != nil {
		return fmt.Errorf("failed to encode farm list: %w", err)
	}
	settingsJSON, err := marshalJSONB(user.NotificationSettings)
	if err != nil {
		return fmt.Errorf("failed to encode notification settings: %w", err)
	}
	notificationsJSON, err := marshalJSONB(user.NotificationList)
	if err != nil {
		return fmt.Errorf("failed to encode notification list: %w", err)
	}

	query := `
		INSERT INTO users (
			user_id, message_token, farm_list, notification_settings, notification_list
		) VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb)
		ON CONFLICT (user_id) DO UPDATE SET
			message_token = EXCLUDED.message_token,
			farm_list = EXCLUDED.farm_list,
			notification_settings = EXCLUDED.notification_settings,
			notification_list = EXCLUDED.notification_list
	`
	_, err = r.db.ExecContext(ctx, query,
		user.UserID, user.MessageToken, farmsJSON, settingsJSON, notificationsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, message_token, farm_list, notification_settings, notification_list
		FROM users
		WHERE user_id = $1
	`

	var user domain.User
	var farmsRaw, settingsRaw, notificationsRaw []byte
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.MessageToken, &farmsRaw, &settingsRaw, &notificationsRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := scanJSONB(farmsRaw, &user.FarmList); err != nil {
		return nil, fmt.Errorf("failed to decode farm list: %w", err)
	}
	if err := scanJSONB(settingsRaw, &user.NotificationSettings); err != nil {
		return nil, fmt.Errorf("failed to decode notification settings: %w", err)
	}
	if err := scanJSONB(notificationsRaw, &user.NotificationList); err != nil {
		return nil, fmt.Errorf("failed to decode notification list: %w", err)
	}
	return &user, nil
}

func (r *PostgresUsersRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresUsersRepository) UpdateMessageToken(ctx context.Context, userID, token string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET message_token = $2 WHERE user_id = $1`, userID, token,
	)
	if err != nil {
		return fmt.Errorf("failed to update message token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUsersRepository) UpdateNotificationSettings(ctx context.Context, userID string, settings []bool) error {
	settingsJSON, err := marshalJSONB(settings)
	if err != nil {
		return fmt.Errorf("failed to encode notification settings: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET notification_settings = $2::jsonb WHERE user_id = $1`,
		userID, settingsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUsersRepository) AppendNotification(ctx context.Context, userID string, n domain.Notification) error {
	entryJSON, err := marshalJSONB([]domain.Notification{n})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	query := `
		UPDATE users
		SET notification_list = notification_list || $2::jsonb
		WHERE user_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, entryJSON)
	if err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check append result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveNotifications drops entries by id. Filtering happens in Go because
// the entries are objects, not scalars, so jsonb "-" cannot match them.
func (r *PostgresUsersRepository) RemoveNotifications(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]domain.Notification, 0, len(user.NotificationList))
	for _, n := range user.NotificationList {
		if !drop[n.ID] {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(user.NotificationList) {
		return nil
	}

	keptJSON, err := marshalJSONB(kept)
	if err != nil {
		return fmt.Errorf("failed to encode notification list: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET notification_list = $2::jsonb WHERE user_id = $1`,
		userID, keptJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to remove notifications: %w", err)
	}
	return nil
}
