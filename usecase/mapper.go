package usecase

import (
	"tango-chat-app/dto/res"
	"tango-chat-app/entity"
	"tango-chat-app/enum"
)

func toMessageResponse(message *entity.ChatMessage, users map[string]entity.User, status *entity.MessageStatus) res.MessageResponse {
	sender := users[message.SenderID]
	response := res.MessageResponse{
		Slug:                 message.Slug,
		RoomSlug:             message.RoomSlug,
		SenderID:             message.SenderID,
		SenderName:           sender.Name,
		SenderAvatar:         sender.Avatar,
		MessageType:          string(message.MessageType),
		BadgeType:            string(message.BadgeType),
		TargetUserID:         message.TargetUserID,
		IsDeletedForEveryone: message.IsDeletedForEveryone,
		CreatedAt:            message.CreatedAt.Format(res.TimeLayout),
	}
	if status != nil {
		response.Status = string(status.Status)
	}
	// Content of a message deleted for everyone never leaves the server.
	if message.IsDeletedForEveryone {
		return response
	}
	response.Body = message.Body
	response.FileURL = message.FileURL
	response.FileName = message.FileName
	response.FileSize = message.FileSize
	response.MimeType = message.MimeType
	return response
}

func toMemberResponse(membership *entity.RoomMembership, users map[string]entity.User) res.MemberResponse {
	user := users[membership.UserID]
	return res.MemberResponse{
		UserID:     membership.UserID,
		Name:       user.Name,
		Avatar:     user.Avatar,
		IsOwner:    membership.IsOwner,
		IsSubAdmin: membership.IsSubAdmin,
		State:      string(membership.State()),
	}
}

func toGroupResponse(room *entity.ChatRoom) res.GroupResponse {
	return res.GroupResponse{
		RoomSlug:             room.Slug,
		Name:                 room.Name,
		Icon:                 room.Icon,
		CanMemberAddMember:   room.CanMemberAddMember,
		CanMemberSendMessage: room.CanMemberSendMessage,
	}
}

// toChatResponse builds one thread entry. For single rooms the name and
// icon come from the other participant, peerID.
func toChatResponse(room *entity.ChatRoom, membership *entity.RoomMembership, peerID string, users map[string]entity.User, last *res.MessageResponse) res.ChatResponse {
	name, icon := room.Name, room.Icon
	if room.Type == enum.RoomSingle {
		peer := users[peerID]
		name, icon = peer.Name, peer.Avatar
	}
	return res.ChatResponse{
		RoomSlug:             room.Slug,
		Type:                 string(room.Type),
		Name:                 name,
		Icon:                 icon,
		LastMessage:          last,
		UnreadCount:          membership.UnreadCount,
		LastMessageTime:      membership.LastMessageAt.Format(res.TimeLayout),
		State:                string(membership.State()),
		IsOwner:              membership.IsOwner,
		IsSubAdmin:           membership.IsSubAdmin,
		IsBlocked:            membership.IsBlocked,
		CanMemberAddMember:   room.CanMemberAddMember,
		CanMemberSendMessage: room.CanMemberSendMessage,
	}
}
