package usecase

import (
	"context"

	"tango-chat-app/dispatch"
	"tango-chat-app/dto/req"
	"tango-chat-app/dto/res"
)

// MembershipUsecase owns every transition of a group's membership rows.
type MembershipUsecase interface {
	AddMembers(ctx context.Context, actorID string, request *req.MembersRequest) (res.MemberChangeResponse, []dispatch.Effect, error)
	RemoveMembers(ctx context.Context, actorID string, request *req.MembersRequest) (res.MemberChangeResponse, []dispatch.Effect, error)
	LeaveGroup(ctx context.Context, actorID string, request *req.RoomRequest) (res.MemberChangeResponse, []dispatch.Effect, error)
	PromoteMember(ctx context.Context, actorID string, request *req.MemberRequest) (res.MemberResponse, []dispatch.Effect, error)
	DemoteMember(ctx context.Context, actorID string, request *req.MemberRequest) (res.MemberResponse, []dispatch.Effect, error)
	UpdateGroup(ctx context.Context, actorID string, request *req.UpdateGroupRequest) (res.GroupResponse, []dispatch.Effect, error)
	DeleteGroup(ctx context.Context, actorID string, request *req.RoomRequest) (res.GroupResponse, []dispatch.Effect, error)
	GetMembers(ctx context.Context, userID, roomSlug string) (res.MembersResponse, error)
}
