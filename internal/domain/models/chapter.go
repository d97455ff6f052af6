// internal/domain/models/chapter.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryItem is a piece of chapter-owned equipment (masks, signs, TVs).
type InventoryItem struct {
	Name     string `bson:"name" json:"name"`
	Quantity int    `bson:"quantity" json:"quantity"`
}

// Chapter is a local group in one city. The name doubles as the chapter's
// unique key; events reference chapters by name through their City field.
type Chapter struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	Country   string             `bson:"country" json:"country"`
	Lat       float64            `bson:"lat" json:"lat"`
	Lng       float64            `bson:"lng" json:"lng"`
	Instagram string             `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Inventory []InventoryItem    `bson:"inventory,omitempty" json:"inventory,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CountryOf resolves a chapter name to its country against the given
// chapter list. The second return is false if the chapter is unknown.
func CountryOf(chapterName string, all []Chapter) (string, bool) {
	for _, c := range all {
		if c.Name == chapterName {
			return c.Country, true
		}
	}
	return "", false
}
