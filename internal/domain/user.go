package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID         int64     `json:"id,string" gorm:"primaryKey"`
	Username   string    `gorm:"uniqueIndex;size:128" json:"username" form:"username"`
	Email      string    `gorm:"uniqueIndex;size:256" json:"email" form:"email"`
	Password   string    `json:"-" form:"password"`
	Role       string    `gorm:"size:16;index" json:"role" form:"role"`
	TelegramId string    `gorm:"index;size:128" json:"telegram_id"`
	Blocked    bool      `json:"blocked"`
	LastLogin  time.Time `json:"last_login"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
