package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"newsdash/internal/domain"
)

const subscriptionsTable = "subscriptions"

// Subscribe creates or replaces the digest subscription of a chat.
func (d *Database) Subscribe(ctx context.Context, chatID int64, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return errors.New("category is empty")
	}

	query, args, err := sq.Insert(subscriptionsTable).
		Columns("chat_id", "category").
		Values(chatID, category).
		Suffix("on conflict (chat_id) do update set category = excluded.category, updated_at = current_timestamp").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err = d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	return nil
}

// Unsubscribe removes the subscription of a chat and reports whether one
// existed.
func (d *Database) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	query, args, err := sq.Delete(subscriptionsTable).
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("execute query: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get affected rows: %w", err)
	}

	return affected > 0, nil
}

// GetSubscription returns nil when the chat has no subscription.
func (d *Database) GetSubscription(ctx context.Context, chatID int64) (*domain.Subscription, error) {
	query, args, err := selectSubscriptions().
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s domain.Subscription
	err = d.db.QueryRowContext(ctx, query, args...).
		Scan(&s.ChatID, &s.Category, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Absence is not an error.
	}
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	return &s, nil
}

func (d *Database) GetSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	query, args, err := selectSubscriptions().
		OrderBy("chat_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "GetSubscriptions")
		}
	}()

	var subscriptions []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err = rows.Scan(&s.ChatID, &s.Category, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		s.Category = strings.TrimSpace(s.Category)
		subscriptions = append(subscriptions, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return subscriptions, nil
}

func selectSubscriptions() sq.SelectBuilder {
	return sq.Select("chat_id", "category", "created_at", "updated_at").
		From(subscriptionsTable)
}
