// Package model holds the relational models of the drive tree.
package model

import (
	"time"
)

// User is an account that owns a tree of entries.
type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Email        string `gorm:"size:254;uniqueIndex;not null"`
	DisplayName  string `gorm:"size:128"`
	PasswordHash []byte `gorm:"not null"`
	CreatedAt    time.Time
}

// TableName returns the database table name.
func (User) TableName() string {
	return "drive_users"
}

// Entry is a single file-or-directory node in a user's tree.
//
// ParentID is nil for roots of a user's tree. ObjectRef is the opaque
// object-store key of a file's payload; directories keep it empty. The
// parent foreign key cascades on delete, so removing a directory row
// removes the whole subtree server-side.
type Entry struct {
	ID          uint64  `gorm:"primaryKey"`
	OwnerID     uint64  `gorm:"index:idx_drive_entries_owner_parent;not null"`
	ParentID    *uint64 `gorm:"index:idx_drive_entries_owner_parent"`
	Name        string  `gorm:"size:255;not null"`
	IsDirectory bool    `gorm:"not null"`
	ObjectRef   string  `gorm:"size:512;not null"`
	SizeBytes   int64   `gorm:"not null"`
	CreatedAt   time.Time

	Owner  User   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Parent *Entry `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name.
func (Entry) TableName() string {
	return "drive_entries"
}
