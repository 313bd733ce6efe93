package comment

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mangazone-api/internal/domain"
)

type Document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	MangaID   string             `bson:"mangaId"`
	AuthorID  string             `bson:"authorId,omitempty"`
	Username  string             `bson:"username"`
	Avatar    string             `bson:"avatar"`
	Message   string             `bson:"message"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *Document) ToDomain() domain.Comment {
	return domain.Comment{
		ID:        d.ID.Hex(),
		MangaID:   d.MangaID,
		AuthorID:  d.AuthorID,
		Username:  d.Username,
		Avatar:    d.Avatar,
		Message:   d.Message,
		CreatedAt: d.CreatedAt,
	}
}

type PropagationDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"userId"`
	OldUsername string             `bson:"oldUsername"`
	NewUsername string             `bson:"newUsername"`
	NewAvatar   string             `bson:"newAvatar"`
	Status      string             `bson:"status"`
	Attempts    int                `bson:"attempts"`
	LastError   string             `bson:"lastError,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d *PropagationDocument) ToDomain() domain.Propagation {
	return domain.Propagation{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		OldUsername: d.OldUsername,
		NewUsername: d.NewUsername,
		NewAvatar:   d.NewAvatar,
		Status:      domain.PropagationStatus(d.Status),
		Attempts:    d.Attempts,
		LastError:   d.LastError,
		CreatedAt:   d.CreatedAt,
	}
}
