package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Post is a feed entry. Author fields are copied from the user when the post
// is created and are never re-synced.
type Post struct {
	ID              uuid.UUID                   `json:"_id" gorm:"type:uuid;primary_key"`
	UserID          uuid.UUID                   `json:"userId" gorm:"type:uuid;not null;index"`
	FirstName       string                      `json:"firstName" gorm:"not null"`
	LastName        string                      `json:"lastName" gorm:"not null"`
	Location        string                      `json:"location"`
	Description     string                      `json:"description"`
	PicturePath     string                      `json:"picturePath"`
	UserPicturePath string                      `json:"userPicturePath"`
	Likes           datatypes.JSONMap           `json:"likes" gorm:"type:jsonb;not null;default:'{}'"`
	Comments        datatypes.JSONSlice[string] `json:"comments" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// IsLikedBy reports whether userID is present in the like set.
func (p *Post) IsLikedBy(userID uuid.UUID) bool {
	_, ok := p.Likes[userID.String()]
	return ok
}

// ToggleLike flips userID's presence in the like set. Unliking deletes the
// key rather than storing false. It returns the new state.
func (p *Post) ToggleLike(userID uuid.UUID) bool {
	if p.Likes == nil {
		p.Likes = datatypes.JSONMap{}
	}
	key := userID.String()
	if _, ok := p.Likes[key]; ok {
		delete(p.Likes, key)
		return false
	}
	p.Likes[key] = true
	return true
}

// Clone returns a deep copy; likes and comments are not shared.
func (p *Post) Clone() *Post {
	c := *p
	c.Likes = make(datatypes.JSONMap, len(p.Likes))
	for k, v := range p.Likes {
		c.Likes[k] = v
	}
	c.Comments = append(datatypes.JSONSlice[string]{}, p.Comments...)
	return &c
}
