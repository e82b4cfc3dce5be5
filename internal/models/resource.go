package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const ResourceTypeDriveLink = "drive-link"

type Resource struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        string             `bson:"type" json:"type"`
	Link        string             `bson:"link" json:"link"`
	GroupID     primitive.ObjectID `bson:"group_id" json:"groupId"`
	UploadedBy  primitive.ObjectID `bson:"uploaded_by" json:"uploadedBy"`
	Views       int64              `bson:"views" json:"views"`
	Hidden      bool               `bson:"hidden" json:"hidden,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

// ResourceGroup is an admin-curated bundle of resources that can be linked
// to learning groups.
type ResourceGroup struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	Description  string               `bson:"description,omitempty" json:"description,omitempty"`
	Resources    []primitive.ObjectID `bson:"resources" json:"resources"`
	LinkedGroups []primitive.ObjectID `bson:"linked_groups" json:"linkedGroups"`
	CreatedAt    time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updatedAt"`
}

func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func RemoveID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

type ViewCount struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Title string             `bson:"title" json:"title"`
	Views int64              `bson:"views" json:"views"`
}

type UploaderCount struct {
	UserID primitive.ObjectID `bson:"_id" json:"userId"`
	Count  int64              `bson:"count" json:"count"`
}

type ResourceAnalytics struct {
	Total        int64           `json:"total"`
	RecentWeek   int64           `json:"recentWeek"`
	TopViewed    []ViewCount     `json:"topViewed"`
	TopUploaders []UploaderCount `json:"topUploaders"`
}
