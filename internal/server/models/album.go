package models

import "time"

// AlbumImage holds the signed URLs of one uploaded photo.
type AlbumImage struct {
	Original string `bson:"original,omitempty" json:"original,omitempty"`
	X200     string `bson:"x200,omitempty" json:"x200,omitempty"`
	X720     string `bson:"x720,omitempty" json:"x720,omitempty"`
}

type Album struct {
	ID      string       `bson:"_id" json:"_id"`
	UserID  string       `bson:"user_id" json:"user_id"`
	Images  []AlbumImage `bson:"images_url" json:"images_url"`
	Created time.Time    `bson:"created" json:"created"`
}
