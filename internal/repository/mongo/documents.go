package mongo

import (
	"time"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type userDocument struct {
	ID            string    `bson:"_id"`
	FirstName     string    `bson:"firstName"`
	LastName      string    `bson:"lastName"`
	Email         string    `bson:"email"`
	Password      string    `bson:"password"`
	PicturePath   string    `bson:"picturePath"`
	Friends       []string  `bson:"friends"`
	Location      string    `bson:"location"`
	Occupation    string    `bson:"occupation"`
	ViewedProfile int       `bson:"viewedProfile"`
	Impressions   int       `bson:"impressions"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

type postDocument struct {
	ID              string          `bson:"_id"`
	UserID          string          `bson:"userId"`
	FirstName       string          `bson:"firstName"`
	LastName        string          `bson:"lastName"`
	Location        string          `bson:"location"`
	Description     string          `bson:"description"`
	PicturePath     string          `bson:"picturePath"`
	UserPicturePath string          `bson:"userPicturePath"`
	Likes           map[string]bool `bson:"likes"`
	Comments        []string        `bson:"comments"`
	CreatedAt       time.Time       `bson:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt"`
}

func toUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:            u.ID.String(),
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Password:      u.PasswordHash,
		PicturePath:   u.PicturePath,
		Friends:       idStrings(u.Friends),
		Location:      u.Location,
		Occupation:    u.Occupation,
		ViewedProfile: u.ViewedProfile,
		Impressions:   u.Impressions,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	friends := make(datatypes.JSONSlice[uuid.UUID], 0, len(d.Friends))
	for _, f := range d.Friends {
		fid, err := uuid.Parse(f)
		if err != nil {
			continue
		}
		friends = append(friends, fid)
	}
	return &domain.User{
		ID:            id,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		PasswordHash:  d.Password,
		PicturePath:   d.PicturePath,
		Friends:       friends,
		Location:      d.Location,
		Occupation:    d.Occupation,
		ViewedProfile: d.ViewedProfile,
		Impressions:   d.Impressions,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func toPostDocument(p *domain.Post) postDocument {
	likes := make(map[string]bool, len(p.Likes))
	for k := range p.Likes {
		likes[k] = true
	}
	comments := append([]string{}, p.Comments...)
	return postDocument{
		ID:              p.ID.String(),
		UserID:          p.UserID.String(),
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Location:        p.Location,
		Description:     p.Description,
		PicturePath:     p.PicturePath,
		UserPicturePath: p.UserPicturePath,
		Likes:           likes,
		Comments:        comments,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (d postDocument) toDomain() (*domain.Post, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}
	likes := make(datatypes.JSONMap, len(d.Likes))
	for k, v := range d.Likes {
		if v {
			likes[k] = true
		}
	}
	return &domain.Post{
		ID:              id,
		UserID:          userID,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Location:        d.Location,
		Description:     d.Description,
		PicturePath:     d.PicturePath,
		UserPicturePath: d.UserPicturePath,
		Likes:           likes,
		Comments:        append(datatypes.JSONSlice[string]{}, d.Comments...),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
