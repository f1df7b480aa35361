package photo

import "errors"

var (
	ErrNotFound = errors.New("photo not found")
)

// Photo is the persisted document in the "photos" collection. Image holds the
// binary content inline unless it was offloaded to object storage, in which
// case ObjectKey names the blob and Image is empty in the stored document.
type Photo struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	Title       string `json:"title" bson:"title"`
	ContentType string `json:"contentType,omitempty" bson:"contentType,omitempty"`
	Size        int64  `json:"size" bson:"size"`
	Image       []byte `json:"-" bson:"image,omitempty"`
	ObjectKey   string `json:"-" bson:"objectKey,omitempty"`
}
