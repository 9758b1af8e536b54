package entity

// User is the read side of the identity provider; this service only looks
// users up to enrich payloads.
type User struct {
	ID     string `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name   string `json:"name" gorm:"type:varchar(255)"`
	Avatar string `json:"avatar,omitempty" gorm:"type:text"`
}
