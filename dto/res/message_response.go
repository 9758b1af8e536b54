package res

type MessageResponse struct {
	Slug                 string `json:"slug"`
	RoomSlug             string `json:"roomSlug"`
	SenderID             string `json:"senderId"`
	SenderName           string `json:"senderName"`
	SenderAvatar         string `json:"senderAvatar,omitempty"`
	MessageType          string `json:"messageType"`
	BadgeType            string `json:"badgeType,omitempty"`
	TargetUserID         string `json:"targetUserId,omitempty"`
	Body                 string `json:"body"`
	FileURL              string `json:"fileUrl,omitempty"`
	FileName             string `json:"fileName,omitempty"`
	FileSize             int64  `json:"fileSize,omitempty"`
	MimeType             string `json:"mimeType,omitempty"`
	IsDeletedForEveryone bool   `json:"isDeletedForEveryone"`
	Status               string `json:"status,omitempty"`
	CreatedAt            string `json:"createdAt"`
}

type SendMessageResponse struct {
	Message   MessageResponse `json:"message"`
	NewThread bool            `json:"newThread"`
}

type DeleteMessageResponse struct {
	MessageSlug string `json:"messageSlug"`
	RoomSlug    string `json:"roomSlug"`
	Scope       string `json:"scope"`
}
