package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rahulxs/ping-chat/pkg/chat"
	"github.com/rahulxs/ping-chat/pkg/models"
)

const messageColumns = `id, sender_id, receiver_id, kind, text, image_url, audio_url, video_url,
	       call_type, call_status, call_duration, seen, is_deleted, deleted_for, created_at`

func (s *Store) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	saved := *msg
	saved.ID = uuid.New().String()
	saved.CreatedAt = time.Now().UTC()
	if saved.Kind == "" {
		saved.Kind = models.MessageKindText
	}
	if saved.DeletedFor == nil {
		saved.DeletedFor = []string{}
	}

	s.logger.Info("Saving message",
		"message_id", saved.ID, "sender_id", saved.SenderID,
		"receiver_id", saved.ReceiverID, "kind", saved.Kind)

	query := `
		INSERT INTO messages (id, sender_id, receiver_id, kind, text, image_url, audio_url, video_url,
		                      call_type, call_status, call_duration, seen, is_deleted, deleted_for, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := s.DB.ExecContext(ctx, query,
		saved.ID, saved.SenderID, saved.ReceiverID, saved.Kind, saved.Text,
		saved.ImageURL, saved.AudioURL, saved.VideoURL,
		saved.CallType, saved.CallStatus, saved.CallDuration,
		saved.Seen, saved.IsDeleted, pq.Array(saved.DeletedFor), saved.CreatedAt,
	)
	if err != nil {
		s.logger.Error("Failed to insert message",
			"error", err, "sender_id", saved.SenderID, "receiver_id", saved.ReceiverID)
		return nil, err
	}

	s.invalidateUnseenCount(ctx, saved.SenderID, saved.ReceiverID)

	s.logger.Debug("Message saved", "message_id", saved.ID)
	return &saved, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Message, error) {
	s.logger.Debug("Getting message", "message_id", id)

	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	msg, err := scanMessage(s.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		s.logger.Debug("Message not found", "message_id", id)
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get message", "error", err, "message_id", id)
		return nil, err
	}
	return msg, nil
}

func (s *Store) FindByPair(ctx context.Context, userA, userB string) ([]models.Message, error) {
	s.logger.Debug("Getting thread", "user_a", userA, "user_b", userB)

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at, id`

	rows, err := s.DB.QueryContext(ctx, query, userA, userB)
	if err != nil {
		s.logger.Error("Failed to query thread", "error", err, "user_a", userA, "user_b", userB)
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			s.logger.Error("Failed to scan message row", "error", err)
			return nil, err
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("Thread retrieved", "user_a", userA, "user_b", userB, "message_count", len(messages))
	return messages, nil
}

func (s *Store) MarkPairSeen(ctx context.Context, senderID, receiverID string) error {
	s.logger.Debug("Marking thread seen", "sender_id", senderID, "receiver_id", receiverID)

	result, err := s.DB.ExecContext(ctx, `
		UPDATE messages
		SET seen = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND seen = FALSE`,
		senderID, receiverID,
	)
	if err != nil {
		s.logger.Error("Failed to mark thread seen",
			"error", err, "sender_id", senderID, "receiver_id", receiverID)
		return err
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		s.invalidateUnseenCount(ctx, senderID, receiverID)
		s.logger.Debug("Thread marked seen", "rows_affected", rows)
	}
	return nil
}

func (s *Store) CountUnseen(ctx context.Context, senderID, receiverID string) (int, error) {
	if n, ok := s.cachedUnseenCount(ctx, senderID, receiverID); ok {
		return n, nil
	}

	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE sender_id = $1 AND receiver_id = $2
		  AND seen = FALSE
		  AND is_deleted = FALSE
		  AND NOT ($2 = ANY(deleted_for))`

	var count int
	if err := s.DB.QueryRowContext(ctx, query, senderID, receiverID).Scan(&count); err != nil {
		s.logger.Error("Failed to count unseen messages",
			"error", err, "sender_id", senderID, "receiver_id", receiverID)
		return 0, err
	}

	s.cacheUnseenCount(ctx, senderID, receiverID, count)
	return count, nil
}

func (s *Store) UpdateFlags(ctx context.Context, id string, upd chat.FlagUpdate) error {
	var sets []string
	var args []interface{}

	// Flags are monotonic; only the true direction is ever applied.
	if upd.Seen != nil && *upd.Seen {
		sets = append(sets, "seen = TRUE")
	}
	if upd.IsDeleted != nil && *upd.IsDeleted {
		sets = append(sets, "is_deleted = TRUE")
	}
	if upd.AddDeletedFor != "" {
		args = append(args, upd.AddDeletedFor)
		n := len(args)
		sets = append(sets, fmt.Sprintf(
			"deleted_for = CASE WHEN $%d = ANY(deleted_for) THEN deleted_for ELSE array_append(deleted_for, $%d) END",
			n, n))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE messages SET %s WHERE id = $%d RETURNING sender_id, receiver_id",
		strings.Join(sets, ", "), len(args))

	var senderID, receiverID string
	err := s.DB.QueryRowContext(ctx, query, args...).Scan(&senderID, &receiverID)
	if err != nil {
		s.logger.Error("Failed to update message flags", "error", err, "message_id", id)
		return err
	}

	s.invalidateUnseenCount(ctx, senderID, receiverID)

	s.logger.Info("Message flags updated",
		"message_id", id,
		"seen", upd.Seen != nil, "is_deleted", upd.IsDeleted != nil,
		"deleted_for_added", upd.AddDeletedFor != "")
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var msg models.Message
	var callType, callStatus *string

	err := row.Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Kind, &msg.Text,
		&msg.ImageURL, &msg.AudioURL, &msg.VideoURL,
		&callType, &callStatus, &msg.CallDuration,
		&msg.Seen, &msg.IsDeleted, pq.Array(&msg.DeletedFor), &msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if callType != nil {
		ct := models.CallType(*callType)
		msg.CallType = &ct
	}
	if callStatus != nil {
		cs := models.CallStatus(*callStatus)
		msg.CallStatus = &cs
	}
	return &msg, nil
}
