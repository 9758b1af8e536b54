package usecase

import (
	"context"

	"tango-chat-app/dispatch"
	"tango-chat-app/dto/req"
	"tango-chat-app/dto/res"
)

type MessageUsecase interface {
	SendMessage(ctx context.Context, senderID string, request *req.SendMessageRequest) (res.SendMessageResponse, []dispatch.Effect, error)
	DeleteMessage(ctx context.Context, actorID string, request *req.DeleteMessageRequest) (res.DeleteMessageResponse, []dispatch.Effect, error)
	GetMessages(ctx context.Context, userID string, request *req.GetMessagesRequest) ([]res.MessageResponse, error)
}
