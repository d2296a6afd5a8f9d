// Package dto defines the request and view types of the drive HTTP boundary.
package dto

import (
	"time"
)

// EntryItem is the listing projection of a drive entry.
type EntryItem struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	SizeBytes   int64     `json:"size_bytes"`
	IsDirectory bool      `json:"is_directory"`
}

// CreateDirectoryRequest creates a directory under an optional parent.
type CreateDirectoryRequest struct {
	ParentID *FlexibleID `json:"parent_id"`
	Name     string      `json:"name" binding:"required"`
}

// RenameRequest renames a single entry.
type RenameRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

// DeleteRequest removes a set of entries, cascading through directories.
type DeleteRequest struct {
	IDs []FlexibleID `json:"ids" binding:"required,min=1"`
}

// DownloadRequest selects entries for archive download.
type DownloadRequest struct {
	IDs []FlexibleID `json:"ids" binding:"required,min=1"`
}

// SignupRequest registers a new user.
type SignupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

// SigninRequest exchanges credentials for a bearer token.
type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}
