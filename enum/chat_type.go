package enum

type RoomType string

const (
	RoomSingle RoomType = "single"
	RoomGroup  RoomType = "group"
)
