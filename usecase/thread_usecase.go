package usecase

import (
	"context"

	"tango-chat-app/dispatch"
	"tango-chat-app/dto/req"
	"tango-chat-app/dto/res"
)

// ThreadUsecase covers the per-user view of rooms. None of its mutations
// are visible to anyone but the requester.
type ThreadUsecase interface {
	GetChatThreads(ctx context.Context, userID string) ([]res.ChatResponse, error)
	ResetMessageCount(ctx context.Context, userID string, request *req.RoomRequest) (res.ThreadStateResponse, []dispatch.Effect, error)
	BlockChatThread(ctx context.Context, userID string, request *req.BlockThreadRequest) (res.ThreadStateResponse, []dispatch.Effect, error)
	DeleteChatThread(ctx context.Context, userID string, request *req.RoomRequest) (res.ThreadStateResponse, []dispatch.Effect, error)
	ActiveRoomSlugs(ctx context.Context, userID string) ([]string, error)
}
