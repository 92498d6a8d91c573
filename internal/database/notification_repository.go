package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kwakchaewon/surveypulse/internal/domain"
	"github.com/kwakchaewon/surveypulse/internal/metrics"
)

// NotificationRepo is the durable notification log on PostgreSQL.
type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, recipientID, referenceID int64, message string, alarmType domain.AlarmType) (*domain.Notification, error) {
	createdAt := time.Now().UTC()
	expiresAt := createdAt.Add(domain.RetentionPeriod)

	n := domain.Notification{
		Type:        alarmType,
		RecipientID: recipientID,
		ReferenceID: referenceID,
		Message:     message,
		IsRead:      false,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (type, recipient_id, reference_id, message, is_read, created_at, expires_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		RETURNING id
	`, string(alarmType), recipientID, referenceID, message, createdAt, expiresAt).Scan(&n.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert notification: %w", domain.ErrStorageUnavailable, err)
	}

	return &n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, recipientID int64, surveyIDs []int64) error {
	if len(surveyIDs) == 0 {
		return nil
	}

	// Scoping by recipient_id makes foreign or unknown ids a silent no-op
	// rather than an authorization error.
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE type = $1
		  AND recipient_id = $2
		  AND reference_id = ANY($3)
		  AND is_read = FALSE
	`, string(domain.AlarmSurveyResponse), recipientID, surveyIDs)
	if err != nil {
		return fmt.Errorf("%w: failed to mark notifications read: %w", domain.ErrStorageUnavailable, err)
	}

	metrics.NotificationsMarkedRead.Add(float64(tag.RowsAffected()))
	return nil
}

func (r *NotificationRepo) Summaries(ctx context.Context, recipientID int64) ([]domain.Alarm, error) {
	since := time.Now().UTC().Add(-domain.RetentionPeriod)

	rows, err := r.pool.Query(ctx, `
		SELECT n.type, n.reference_id, s.title,
		       BOOL_AND(n.is_read) AS is_read,
		       MAX(n.created_at) AS created_at,
		       COUNT(*) FILTER (WHERE NOT n.is_read) AS alarm_count
		FROM notifications n
		JOIN surveys s ON s.id = n.reference_id
		WHERE n.recipient_id = $1
		  AND s.is_deleted = FALSE
		  AND n.created_at >= $2
		GROUP BY n.type, n.reference_id, s.title
		ORDER BY MAX(n.created_at) DESC
	`, recipientID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query alarm summaries: %w", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	alarms := []domain.Alarm{}
	for rows.Next() {
		var a domain.Alarm
		var alarmType string
		if err := rows.Scan(&alarmType, &a.SurveyID, &a.SurveyTitle, &a.IsRead, &a.CreatedAt, &a.AlarmCount); err != nil {
			return nil, fmt.Errorf("failed to scan alarm summary: %w", err)
		}
		a.Type = domain.AlarmType(alarmType)
		alarms = append(alarms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read alarm summaries: %w", domain.ErrStorageUnavailable, err)
	}

	return alarms, nil
}
