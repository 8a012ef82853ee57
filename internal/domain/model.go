package domain

import (
	"time"
)

// AvatarModel is the GORM model for the avatars table.
// UserID is the primary key, which gives the one-record-per-user constraint.
type AvatarModel struct {
	UserID      string    `gorm:"type:varchar(64);primaryKey"`
	ContentHash string    `gorm:"type:char(64);not null"`
	BlobPath    string    `gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for AvatarModel.
func (AvatarModel) TableName() string {
	return "avatars"
}

// ToDomain converts AvatarModel to a domain AvatarRecord.
func (m *AvatarModel) ToDomain() *AvatarRecord {
	return &AvatarRecord{
		UserID:      m.UserID,
		ContentHash: m.ContentHash,
		BlobPath:    m.BlobPath,
		CreatedAt:   m.CreatedAt,
	}
}

// AvatarToModel converts a domain AvatarRecord to AvatarModel.
func AvatarToModel(r *AvatarRecord) *AvatarModel {
	return &AvatarModel{
		UserID:      r.UserID,
		ContentHash: r.ContentHash,
		BlobPath:    r.BlobPath,
		CreatedAt:   r.CreatedAt,
	}
}

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Name         string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
