package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rahulxs/ping-chat/pkg/metrics"
	"github.com/rahulxs/ping-chat/pkg/models"
)

// FlagUpdate describes a visibility-state mutation. All flags are
// monotonic: Seen and IsDeleted only ever move to true, and AddDeletedFor
// only grows the delete-for-me set.
type FlagUpdate struct {
	Seen          *bool
	IsDeleted     *bool
	AddDeletedFor string
}

// MessageStore is the persistence contract the delivery core consumes.
// Point lookups return (nil, nil) when the row is absent; the service turns
// that into ErrNotFound.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	FindByID(ctx context.Context, id string) (*models.Message, error)
	// FindByPair returns every message between the two users, either
	// direction, ordered by (created_at, id).
	FindByPair(ctx context.Context, userA, userB string) ([]models.Message, error)
	// MarkPairSeen bulk-marks messages from senderID to receiverID as seen.
	MarkPairSeen(ctx context.Context, senderID, receiverID string) error
	// CountUnseen counts unseen messages from senderID to receiverID,
	// excluding globally deleted ones and ones the receiver deleted for
	// themselves.
	CountUnseen(ctx context.Context, senderID, receiverID string) (int, error)
	UpdateFlags(ctx context.Context, id string, upd FlagUpdate) error
	ListUsersExcept(ctx context.Context, userID string) ([]models.User, error)
}

// Dispatcher pushes real-time events to reachable connections. Pushes are
// best effort; implementations swallow delivery failures.
type Dispatcher interface {
	DispatchNewMessage(userID string, msg *models.Message)
	DispatchDeletion(messageID string, affected []string)
}

type DeleteScope string

const (
	DeleteScopeMe       DeleteScope = "me"
	DeleteScopeEveryone DeleteScope = "everyone"
)

// Service owns message lifecycle state transitions: creation, seen marking,
// soft deletion and call-log recording. Every mutation persists first and
// dispatches second; a failed push never fails the operation.
type Service struct {
	store    MessageStore
	dispatch Dispatcher
	logger   *slog.Logger
}

func NewService(store MessageStore, dispatch Dispatcher, logger *slog.Logger) *Service {
	return &Service{store: store, dispatch: dispatch, logger: logger}
}

// Send validates, persists and dispatches a new text/media message.
func (s *Service) Send(ctx context.Context, senderID, receiverID string, req models.SendMessageRequest) (*models.Message, error) {
	if receiverID == "" {
		return nil, fmt.Errorf("%w: receiver id is required", ErrInvalidInput)
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       models.MessageKindText,
		Text:       req.Text,
		ImageURL:   req.ImageURL,
		AudioURL:   req.AudioURL,
		VideoURL:   req.VideoURL,
	}
	if !msg.HasContent() {
		return nil, fmt.Errorf("%w: message needs text or a media reference", ErrInvalidInput)
	}

	saved, err := s.store.Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("persisting message: %w", err)
	}

	s.logger.Info("message sent",
		"message_id", saved.ID, "sender_id", senderID, "receiver_id", receiverID)
	metrics.MessagesSent.Inc()

	// The write is durable at this point; the push is an optimization.
	s.dispatch.DispatchNewMessage(receiverID, saved)
	return saved, nil
}

// RecordCall persists a call-log entry for a finished call. The caller is
// recorded as sender regardless of who submits the log, the duration is
// clamped to zero, and the entry is born seen. Only the other party gets a
// real-time push; the requester already has the result in the response.
func (s *Service) RecordCall(ctx context.Context, requesterID string, req models.CallLogRequest) (*models.Message, error) {
	if req.OtherUserID == "" || req.CallType == "" || req.CallStatus == "" {
		return nil, fmt.Errorf("%w: other_user_id, call_type and call_status are required", ErrInvalidInput)
	}

	callType := models.CallTypeAudio
	if req.CallType == string(models.CallTypeVideo) {
		callType = models.CallTypeVideo
	}
	callStatus := models.CallStatusMissed
	if req.CallStatus == string(models.CallStatusAnswered) {
		callStatus = models.CallStatusAnswered
	}
	duration := req.CallDuration
	if duration < 0 {
		duration = 0
	}

	senderID, receiverID := requesterID, req.OtherUserID
	if !req.WasCaller {
		senderID, receiverID = req.OtherUserID, requesterID
	}

	msg := &models.Message{
		SenderID:     senderID,
		ReceiverID:   receiverID,
		Kind:         models.MessageKindCall,
		CallType:     &callType,
		CallStatus:   &callStatus,
		CallDuration: duration,
		Seen:         true,
	}

	saved, err := s.store.Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("persisting call log: %w", err)
	}

	s.logger.Info("call log recorded",
		"message_id", saved.ID, "requester_id", requesterID, "other_user_id", req.OtherUserID,
		"call_type", callType, "call_status", callStatus, "duration", duration)
	metrics.CallLogsRecorded.Inc()

	s.dispatch.DispatchNewMessage(req.OtherUserID, saved)
	return saved, nil
}

// MarkSeen marks a single message seen. Only the receiver can acknowledge a
// message; repeating the call is a no-op.
func (s *Service) MarkSeen(ctx context.Context, viewerID, messageID string) error {
	msg, err := s.store.FindByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("loading message: %w", err)
	}
	if msg == nil {
		return ErrNotFound
	}
	if msg.ReceiverID != viewerID {
		return fmt.Errorf("%w: only the receiver can mark a message seen", ErrForbidden)
	}
	if msg.Seen {
		return nil
	}

	seen := true
	if err := s.store.UpdateFlags(ctx, messageID, FlagUpdate{Seen: &seen}); err != nil {
		return fmt.Errorf("marking message seen: %w", err)
	}
	s.logger.Debug("message marked seen", "message_id", messageID, "viewer_id", viewerID)
	return nil
}

// MarkThreadSeen bulk-marks everything otherUserID sent to viewerID as seen.
func (s *Service) MarkThreadSeen(ctx context.Context, viewerID, otherUserID string) error {
	if err := s.store.MarkPairSeen(ctx, otherUserID, viewerID); err != nil {
		return fmt.Errorf("marking thread seen: %w", err)
	}
	return nil
}

// FetchThread returns the conversation between viewer and the other user in
// (created_at, id) order. Messages the viewer deleted for themselves are
// dropped; messages deleted for everyone come back as redacted placeholders.
// Opening the thread marks the other side's messages seen.
func (s *Service) FetchThread(ctx context.Context, viewerID, otherUserID string) ([]models.Message, error) {
	msgs, err := s.store.FindByPair(ctx, viewerID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("loading thread: %w", err)
	}

	visible := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.DeletedForUser(viewerID) {
			continue
		}
		if m.IsDeleted {
			visible = append(visible, m.Redacted())
			continue
		}
		visible = append(visible, m)
	}

	if err := s.MarkThreadSeen(ctx, viewerID, otherUserID); err != nil {
		return nil, err
	}

	s.logger.Debug("thread fetched",
		"viewer_id", viewerID, "other_user_id", otherUserID, "messages", len(visible))
	return visible, nil
}

// Delete removes a message either for the requester only or for everyone.
// Delete-for-everyone is sender-only, terminal, and pushes a deletion notice
// to both participants. Delete-for-me is a pure view change: idempotent, no
// dispatch.
func (s *Service) Delete(ctx context.Context, requesterID, messageID string, scope DeleteScope) error {
	msg, err := s.store.FindByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("loading message: %w", err)
	}
	if msg == nil {
		return ErrNotFound
	}
	if !msg.InvolvesUser(requesterID) {
		return fmt.Errorf("%w: not a participant of this conversation", ErrForbidden)
	}

	switch scope {
	case DeleteScopeEveryone:
		if msg.SenderID != requesterID {
			return fmt.Errorf("%w: only the sender can delete for everyone", ErrForbidden)
		}
		if !msg.IsDeleted {
			deleted := true
			if err := s.store.UpdateFlags(ctx, messageID, FlagUpdate{IsDeleted: &deleted}); err != nil {
				return fmt.Errorf("deleting message: %w", err)
			}
		}
		s.logger.Info("message deleted for everyone",
			"message_id", messageID, "requester_id", requesterID)
		s.dispatch.DispatchDeletion(messageID, []string{msg.SenderID, msg.ReceiverID})
		return nil

	case DeleteScopeMe:
		if msg.DeletedForUser(requesterID) {
			return nil
		}
		if err := s.store.UpdateFlags(ctx, messageID, FlagUpdate{AddDeletedFor: requesterID}); err != nil {
			return fmt.Errorf("deleting message for user: %w", err)
		}
		s.logger.Info("message deleted for requester",
			"message_id", messageID, "requester_id", requesterID)
		return nil

	default:
		return fmt.Errorf("%w: unknown delete scope %q", ErrInvalidInput, scope)
	}
}

// ListPartners returns the roster (minus the viewer) together with the
// viewer's sparse unseen-count map.
func (s *Service) ListPartners(ctx context.Context, viewerID string) (*models.PartnersResponse, error) {
	users, err := s.store.ListUsersExcept(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	candidates := make([]string, 0, len(users))
	for _, u := range users {
		candidates = append(candidates, u.ID)
	}

	counts, err := s.UnseenCounts(ctx, viewerID, candidates)
	if err != nil {
		return nil, err
	}

	return &models.PartnersResponse{Users: users, UnseenCounts: counts}, nil
}
