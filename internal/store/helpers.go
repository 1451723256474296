package store

import (
	"database/sql"
	"fmt"

	"github.com/cropgen/agrichat/internal/models"
)

// scanMessages drains chat message rows selected as (sender, text, ts).
func scanMessages(rows *sql.Rows) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.Sender, &m.Text, &m.Ts); err != nil {
			return nil, fmt.Errorf("scan chat message failed: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat message rows failed: %w", err)
	}
	return msgs, nil
}
