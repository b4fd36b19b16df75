// Package identity resolves approvers to their active status and permissions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// ErrUnknownUser is returned when a user id cannot be resolved.
var ErrUnknownUser = errors.New("unknown user")

// User is the identity view the engine needs.
type User struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Active      bool     `json:"active" yaml:"active"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// HasPermission reports whether the user holds permission.
func (u *User) HasPermission(permission string) bool {
	for _, candidate := range u.Permissions {
		if candidate == permission {
			return true
		}
	}
	return false
}

// Missing returns the permissions from required the user lacks.
func (u *User) Missing(required []string) []string {
	var ret []string
	for _, permission := range required {
		if !u.HasPermission(permission) {
			ret = append(ret, permission)
		}
	}
	return ret
}

// Provider resolves a user id.
type Provider interface {
	Lookup(ctx context.Context, id string) (*User, error)
}

// Directory is an in-memory Provider.
type Directory struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewDirectory creates a directory holding users.
func NewDirectory(users ...User) *Directory {
	ret := &Directory{users: map[string]User{}}
	for _, user := range users {
		ret.Put(user)
	}
	return ret
}

// Put adds or replaces a user.
func (d *Directory) Put(user User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user.Permissions = append([]string(nil), user.Permissions...)
	d.users[user.ID] = user
}

// Lookup returns a copy of the user.
func (d *Directory) Lookup(_ context.Context, id string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, id)
	}
	user.Permissions = append([]string(nil), user.Permissions...)
	return &user, nil
}

type document struct {
	Users []User `yaml:"users"`
}

// Load reads a YAML (or JSON) user directory from any afs location.
func Load(ctx context.Context, fs afs.Service, URL string) (*Directory, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity directory %s: %w", URL, err)
	}
	doc := &document{}
	if err = yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode identity directory %s: %w", URL, err)
	}
	ret := NewDirectory()
	for _, user := range doc.Users {
		if user.ID == "" {
			return nil, fmt.Errorf("identity directory %s: user without id", URL)
		}
		ret.Put(user)
	}
	return ret, nil
}

// Permissive resolves every id to an active user with no permissions. It is
// the default when no directory is configured.
type Permissive struct{}

// Lookup returns an active user.
func (Permissive) Lookup(_ context.Context, id string) (*User, error) {
	return &User{ID: id, Active: true}, nil
}
