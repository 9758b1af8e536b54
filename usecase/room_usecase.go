package usecase

import (
	"context"

	"tango-chat-app/dispatch"
	"tango-chat-app/dto/req"
	"tango-chat-app/dto/res"
	"tango-chat-app/entity"
)

type RoomUsecase interface {
	// FindOrCreateDirectRoom returns the single room of the pair and whether
	// this call created it.
	FindOrCreateDirectRoom(ctx context.Context, userAID, userBID string) (*entity.ChatRoom, bool, error)
	FindGroupRoom(ctx context.Context, slug string) (*entity.ChatRoom, error)
	CreateGroup(ctx context.Context, actorID string, request *req.CreateGroupRequest) (res.GroupResponse, []dispatch.Effect, error)
}
