package entity

import "gorm.io/gorm/schema"

// NamingStrategy is shared by the application database and the test
// databases so raw joins can rely on the t_ table names.
var NamingStrategy = schema.NamingStrategy{
	TablePrefix:   "t_",
	SingularTable: true,
}

// Models lists every table this service migrates.
func Models() []any {
	return []any{
		&User{},
		&ChatRoom{},
		&RoomMembership{},
		&ChatMessage{},
		&MessageStatus{},
	}
}
