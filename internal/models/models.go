package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Roles        []Role `gorm:"many2many:user_roles"     json:"roles,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Role struct {
	ID          uint         `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string       `gorm:"uniqueIndex;not null"        json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `gorm:"many2many:role_permissions"  json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Permission is reference data seeded at startup, never created by end users.
type Permission struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null"     json:"name"`
	Description string `json:"description"`
	Module      string `gorm:"index"                    json:"module"`
}

// SessionToken is one issued access+refresh pair. Rows are never deleted;
// Revoked and Expired are always flipped together, so a row is live iff
// both are false.
type SessionToken struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"       json:"id"`
	SessionID    string `gorm:"uniqueIndex;size:36;not null"   json:"session_id"`
	AccessToken  string `gorm:"uniqueIndex;size:1024;not null" json:"-"`
	RefreshToken string `gorm:"uniqueIndex;size:1024;not null" json:"-"`
	UserID       uint   `gorm:"index;not null"                 json:"user_id"`
	User         User   `gorm:"foreignKey:UserID"              json:"-"`
	IPAddress    string `gorm:"size:64"                        json:"ip_address"`
	DeviceInfo   string `gorm:"size:512"                       json:"device_info"`
	Revoked      bool   `gorm:"default:false"                  json:"revoked"`
	Expired      bool   `gorm:"default:false"                  json:"expired"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *SessionToken) Live() bool {
	return !s.Revoked && !s.Expired
}

// VerificationCode is a short-lived single-use code for registration and
// password reset flows.
type VerificationCode struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"index;not null"           json:"email"`
	Code      string    `gorm:"size:6;not null"          json:"-"`
	ExpiresAt time.Time `gorm:"not null"                 json:"expires_at"`
	Used      bool      `gorm:"default:false"            json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Role{},
		&Permission{},
		&SessionToken{},
		&VerificationCode{},
	}
}
