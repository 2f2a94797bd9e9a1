package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/accord/internal/model"
	"github.com/xxxsen/accord/internal/pkg/dbutil"
)

var notificationFields = []string{"id", "recipient", "message", "file_link", "read", "ctime"}

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	data := map[string]interface{}{
		"id":        n.ID,
		"recipient": n.Recipient,
		"message":   n.Message,
		"file_link": n.FileLink,
		"read":      n.Read,
		"ctime":     n.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("notifications", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipient string, limit, offset uint) ([]model.Notification, error) {
	where := map[string]interface{}{
		"recipient": recipient,
		"_orderby":  "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("notifications", where, notificationFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Message, &n.FileLink, &n.Read, &n.Ctime); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipient string) (int, error) {
	sqlStr, args := dbutil.Finalize("SELECT COUNT(1) FROM notifications WHERE recipient = ? AND read = ?", []interface{}{recipient, false})
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, recipient, id string) error {
	sqlStr, args, err := builder.BuildUpdate("notifications",
		map[string]interface{}{"id": id, "recipient": recipient},
		map[string]interface{}{"read": true},
	)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffected(ctx, r.db, sqlStr, args)
}

// DeleteReadBefore removes read notifications created before the timestamp.
func (r *NotificationRepo) DeleteReadBefore(ctx context.Context, before int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("notifications", map[string]interface{}{
		"read":    true,
		"ctime <": before,
	})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
