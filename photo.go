package gallery

import (
	"context"
	"slices"
	"strings"
	"time"
)

// StorageType describes where the bytes of a photo live.
type StorageType string

const (
	StorageRemote         StorageType = "remote"
	StoragePlaceholder    StorageType = "placeholder"
	StorageInlineFallback StorageType = "inline-fallback"
)

// UploadDateFormat is fixed width so that lexicographic order on the
// formatted string is chronological order.
const UploadDateFormat = "2006-01-02T15:04:05.000000Z"

// Photo is the metadata record of one uploaded photo.
type Photo struct {
	ID          int         `json:"id"`
	Filename    string      `json:"filename"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StorageType StorageType `json:"storageType"`

	// Set iff StorageType is StorageRemote. RemoteID is the deletion handle.
	RemoteURL string `json:"remoteUrl,omitempty"`
	RemoteID  string `json:"remoteId,omitempty"`

	// ImageURL is the display URL kept for front-end compatibility.
	ImageURL string `json:"imageUrl,omitempty"`

	// Set iff StorageType is StorageInlineFallback. Base64 or data URI.
	InlineData string `json:"inlineData,omitempty"`

	UploadDate string `json:"uploadDate"`
}

// Validate checks that exactly one storage location describes the photo.
func (p *Photo) Validate() error {
	if p.ID <= 0 {
		return Invalid("Photo id must be positive")
	}
	hasRemote := p.RemoteURL != "" || p.RemoteID != ""
	hasInline := p.InlineData != ""

	switch p.StorageType {
	case StorageRemote:
		if p.RemoteURL == "" || p.RemoteID == "" || hasInline {
			return Invalid("Remote photo %d must carry remoteUrl and remoteId only", p.ID)
		}
	case StorageInlineFallback:
		if !hasInline || hasRemote {
			return Invalid("Inline photo %d must carry inlineData only", p.ID)
		}
	case StoragePlaceholder:
		if hasRemote || hasInline {
			return Invalid("Placeholder photo %d must not carry image data", p.ID)
		}
	default:
		return Invalid("Unknown storage type %q", p.StorageType)
	}
	return nil
}

// FormatUploadDate renders t in UploadDateFormat.
func FormatUploadDate(t time.Time) string {
	return t.UTC().Format(UploadDateFormat)
}

// NextPhotoID returns max(existing ids) + 1, or 1 for an empty collection.
func NextPhotoID(photos []*Photo) int {
	next := 1
	for _, p := range photos {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

// FindPhoto returns the photo with the given id, or nil.
func FindPhoto(photos []*Photo, id int) *Photo {
	for _, p := range photos {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RemovePhoto returns a new slice without the photo carrying id.
func RemovePhoto(photos []*Photo, id int) []*Photo {
	out := make([]*Photo, 0, len(photos))
	for _, p := range photos {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// SortPhotosNewestFirst orders photos by uploadDate descending. Ties keep
// their stored order.
func SortPhotosNewestFirst(photos []*Photo) {
	slices.SortStableFunc(photos, func(a, b *Photo) int {
		return strings.Compare(b.UploadDate, a.UploadDate)
	})
}

// PhotoStore persists the whole photo collection.
type PhotoStore interface {
	// Load reads the full collection. A missing or unreadable store yields
	// an empty collection; the failure is logged, never returned.
	Load(ctx context.Context) []*Photo

	// Read is Load for callers about to overwrite the store. A missing store
	// is an empty collection; an unreadable one returns ESTOREREAD so the
	// caller does not replace records it could not see.
	Read(ctx context.Context) ([]*Photo, error)

	// Save overwrites the entire store with photos.
	// Returns EPERSIST on failure so callers can compensate.
	Save(ctx context.Context, photos []*Photo) error

	// NextID loads the collection and returns NextPhotoID of it.
	NextID(ctx context.Context) int

	// Exists reports whether the durable store has been created.
	Exists(ctx context.Context) bool

	// Provider names the backing implementation ("json", "sqlite", "postgres").
	Provider() string
}
