// Package services contains the server-side business logic: the record
// service, the erasure coordinator and the audit log. Services are stateless
// apart from their collaborators and safe for concurrent use.
package services

import (
	"context"
	"time"
)

// AvatarStore is the object storage used for profile pictures.
type AvatarStore interface {
	PresignPut(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// Clock returns the current time. Tests substitute a fixed one.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
