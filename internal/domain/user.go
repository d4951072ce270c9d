package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID            uuid.UUID                      `json:"_id" gorm:"type:uuid;primary_key"`
	FirstName     string                         `json:"firstName" gorm:"not null;size:50"`
	LastName      string                         `json:"lastName" gorm:"not null;size:50"`
	Email         string                         `json:"email" gorm:"uniqueIndex;not null;size:50"`
	PasswordHash  string                         `json:"-" gorm:"column:password;not null"`
	PicturePath   string                         `json:"picturePath" gorm:"not null;default:''"`
	Friends       datatypes.JSONSlice[uuid.UUID] `json:"friends" gorm:"type:jsonb;not null;default:'[]'"`
	Location      string                         `json:"location"`
	Occupation    string                         `json:"occupation"`
	ViewedProfile int                            `json:"viewedProfile"`
	Impressions   int                            `json:"impressions"`
	CreatedAt     time.Time                      `json:"createdAt"`
	UpdatedAt     time.Time                      `json:"updatedAt"`
}

// HasFriend reports whether id is on the user's friend list.
func (u *User) HasFriend(id uuid.UUID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// AddFriend appends id to the friend list. Order is preserved.
func (u *User) AddFriend(id uuid.UUID) {
	u.Friends = append(u.Friends, id)
}

// RemoveFriend drops every occurrence of id from the friend list.
func (u *User) RemoveFriend(id uuid.UUID) {
	kept := make(datatypes.JSONSlice[uuid.UUID], 0, len(u.Friends))
	for _, f := range u.Friends {
		if f != id {
			kept = append(kept, f)
		}
	}
	u.Friends = kept
}

// Summary projects the user onto the fields exposed in friend lists.
func (u *User) Summary() FriendSummary {
	return FriendSummary{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Occupation:  u.Occupation,
		Location:    u.Location,
		PicturePath: u.PicturePath,
	}
}

// Clone returns a deep copy; the friend list is not shared.
func (u *User) Clone() *User {
	c := *u
	c.Friends = append(datatypes.JSONSlice[uuid.UUID](nil), u.Friends...)
	if c.Friends == nil {
		c.Friends = datatypes.JSONSlice[uuid.UUID]{}
	}
	return &c
}

type FriendSummary struct {
	ID          uuid.UUID `json:"_id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Occupation  string    `json:"occupation"`
	Location    string    `json:"location"`
	PicturePath string    `json:"picturePath"`
}
