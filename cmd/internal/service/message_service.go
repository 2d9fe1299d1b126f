package service

import (
	"context"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

const inboxLimit = 50

type MessageRepository interface {
	Save(ctx context.Context, msg *entity.Message) error
	FindByID(ctx context.Context, id int) (*entity.Message, error)
	FindConversation(ctx context.Context, userID, otherID int) ([]*entity.Message, error)
	FindInbox(ctx context.Context, userID, limit int) ([]*entity.Message, error)
	MarkRead(ctx context.Context, id int, readAt int64) error
}

type SendMessageRequest struct {
	ReceiverID int    `json:"receiver_id" validate:"required,gt=0"`
	PropertyID *int   `json:"property_id" validate:"omitempty,gt=0"`
	Body       string `json:"body" validate:"required,max=2000"`
}

type MessageQuery struct {
	With int `query:"with" validate:"gte=0"`
}

type MessageResponse struct {
	ID         int     `json:"id"`
	SenderID   int     `json:"sender_id"`
	ReceiverID int     `json:"receiver_id"`
	PropertyID *int    `json:"property_id"`
	Body       string  `json:"body"`
	ReadAt     *string `json:"read_at"`
	CreatedAt  string  `json:"created_at"`
}

type DefaultMessageService struct {
	MessageRepo  MessageRepository
	UserRepo     UserRepository
	PropertyRepo PropertyRepository
	Validate     *validator.Validate
}

func NewMessageService(messageRepo MessageRepository, userRepo UserRepository, propertyRepo PropertyRepository, validate *validator.Validate) *DefaultMessageService {
	return &DefaultMessageService{MessageRepo: messageRepo, UserRepo: userRepo, PropertyRepo: propertyRepo, Validate: validate}
}

func (m *DefaultMessageService) SendMessage(ctx context.Context, caller *auth.Principal, req *SendMessageRequest) (*MessageResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := m.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	if req.ReceiverID == caller.UserID {
		return nil, apierror.SelfMessageError
	}

	receiver, err := m.UserRepo.FindByID(ctx, req.ReceiverID)
	if err != nil {
		log.Errorf("failed to fetch user %d: %v", req.ReceiverID, err)
		return nil, apierror.InternalServerError
	}
	if receiver == nil {
		return nil, apierror.NotFound("Receiver not found")
	}

	if req.PropertyID != nil {
		property, err := m.PropertyRepo.FindByID(ctx, *req.PropertyID)
		if err != nil {
			log.Errorf("failed to fetch property %d: %v", *req.PropertyID, err)
			return nil, apierror.InternalServerError
		}
		if property == nil {
			return nil, apierror.NotFound("Property not found")
		}
	}

	msg := &entity.Message{
		SenderID:   caller.UserID,
		ReceiverID: req.ReceiverID,
		PropertyID: req.PropertyID,
		Body:       req.Body,
	}
	if err := m.MessageRepo.Save(ctx, msg); err != nil {
		log.Errorf("failed to save message from user %d: %v", caller.UserID, err)
		return nil, apierror.InternalServerError
	}
	return toMessageResponse(msg), nil
}

// GetMessages returns the conversation with query.With, or the caller's inbox
// when no counterpart is given.
func (m *DefaultMessageService) GetMessages(ctx context.Context, caller *auth.Principal, query *MessageQuery) ([]*MessageResponse, apierror.ErrorResponse) {
	if err := m.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	var (
		msgs []*entity.Message
		err  error
	)
	if query.With > 0 {
		msgs, err = m.MessageRepo.FindConversation(ctx, caller.UserID, query.With)
	} else {
		msgs, err = m.MessageRepo.FindInbox(ctx, caller.UserID, inboxLimit)
	}
	if err != nil {
		log.Errorf("failed to fetch messages for user %d: %v", caller.UserID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*MessageResponse, len(msgs))
	for i, msg := range msgs {
		resp[i] = toMessageResponse(msg)
	}
	return resp, nil
}

// MarkRead is only allowed for the receiver. Reading twice keeps the first
// read time.
func (m *DefaultMessageService) MarkRead(ctx context.Context, caller *auth.Principal, id int) (*MessageResponse, apierror.ErrorResponse) {
	msg, err := m.MessageRepo.FindByID(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch message %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if msg == nil || msg.ReceiverID != caller.UserID {
		return nil, apierror.NotFound("Message not found")
	}
	if msg.ReadAt != nil {
		return toMessageResponse(msg), nil
	}

	now := utils.NowUTC()
	if err := m.MessageRepo.MarkRead(ctx, id, now); err != nil {
		log.Errorf("failed to mark message %d as read: %v", id, err)
		return nil, apierror.InternalServerError
	}
	msg.ReadAt = &now
	return toMessageResponse(msg), nil
}

func toMessageResponse(msg *entity.Message) *MessageResponse {
	return &MessageResponse{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		PropertyID: msg.PropertyID,
		Body:       msg.Body,
		ReadAt:     utils.FormatEpochPtr(msg.ReadAt),
		CreatedAt:  utils.FormatEpoch(msg.CreatedAt),
	}
}
