package domain

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	Provider  bool      `bun:"provider,notnull"`
	AvatarID  *int64    `bun:"avatar_id"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	Avatar *File `bun:"rel:belongs-to,join:avatar_id=id"`
}

type File struct {
	bun.BaseModel `bun:"table:files"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Path      string    `bun:"path,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// URL joins the public files base URL with the stored path.
func (f File) URL(baseURL string) string {
	if baseURL == "" {
		return f.Path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(f.Path, "/")
}
