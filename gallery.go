package gallery

import "context"

// AdminVerifier checks the shared admin secret.
type AdminVerifier interface {
	// Verify reports whether password matches the configured secret.
	// Comparison must not leak timing information.
	Verify(password string) bool
}

// UploadRequest is one photo upload as submitted by a client.
type UploadRequest struct {
	AdminPassword string `json:"-"`
	ImageData     string `json:"imageData"`
	Filename      string `json:"filename" validate:"max=255"`
	Title         string `json:"title" validate:"max=200"`
	Description   string `json:"description" validate:"max=2000"`
}

// PhotoList is the result of listing the gallery.
type PhotoList struct {
	Photos      []*Photo `json:"photos"`
	StorageType string   `json:"storageType"`
	TotalCount  int      `json:"totalCount"`
}

// PhotoImage describes how to serve the bytes of one photo: either a
// redirect to RedirectURL or Data streamed with ContentType.
type PhotoImage struct {
	RedirectURL string
	Data        []byte
	ContentType string
}

// AdminStatus is returned on successful admin verification.
type AdminStatus struct {
	BackendConfigured bool   `json:"backendConfigured"`
	StorageType       string `json:"storageType"`
}

// Health is the diagnostic view of the deployment.
type Health struct {
	Status            string          `json:"status"`
	BackendConfigured bool            `json:"backendConfigured"`
	BackendProvider   string          `json:"backendProvider"`
	StorageType       string          `json:"storageType"`
	StoreProvider     string          `json:"storeProvider"`
	StoreExists       bool            `json:"storeExists"`
	PhotosCount       int             `json:"photosCount"`
	Credentials       map[string]bool `json:"credentials,omitempty"`
}

// GalleryService defines the gallery operations.
type GalleryService interface {
	// ListPhotos returns every photo, newest upload first.
	ListPhotos(ctx context.Context) (*PhotoList, error)

	// UploadPhoto uploads the image to the remote backend and records it.
	// Returns EUNAUTHORIZED, EINVALID, EUNAVAILABLE, EUPLOAD or EPERSIST.
	UploadPhoto(ctx context.Context, req UploadRequest) (*Photo, error)

	// FindPhotoImage resolves how the image of a photo is served.
	// Returns ENOTFOUND if the photo or its image data does not exist.
	FindPhotoImage(ctx context.Context, id int) (*PhotoImage, error)

	// DeletePhoto removes a photo and, best effort, its remote object.
	// Returns EUNAUTHORIZED, ENOTFOUND or EPERSIST.
	DeletePhoto(ctx context.Context, adminPassword string, id int) error

	// VerifyAdmin checks an admin password.
	// Returns EUNAUTHORIZED on mismatch.
	VerifyAdmin(ctx context.Context, password string) (*AdminStatus, error)

	// Health reports diagnostic state. It never fails.
	Health(ctx context.Context) *Health

	// StorageType returns the deployment storage summary.
	StorageType() string
}
