package auth

import (
	"context"

	"github.com/laelblog/blogctl/client"
)

// API is the part of the blog client the auth service drives.
type API interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*client.Admin, error)
}
