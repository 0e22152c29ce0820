package services

import (
	"fmt"
	"mime/multipart"

	"github.com/Jomkit/Omakase/utils"
)

// MockImageService implements ImageService in memory for tests.
type MockImageService struct {
	// Uploaded records the keys handed out by UploadImage
	Uploaded []string
	// Deleted records the keys passed to DeleteImage
	Deleted []string

	// UploadError, when set, is returned from UploadImage
	UploadError error
}

// NewMockImageService creates an empty mock image service.
func NewMockImageService() *MockImageService {
	return &MockImageService{}
}

// UploadImage validates the file and returns a deterministic key.
func (m *MockImageService) UploadImage(fileHeader *multipart.FileHeader) (string, error) {
	if m.UploadError != nil {
		return "", m.UploadError
	}
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	key := fmt.Sprintf("menu-images/mock_%d_%s", len(m.Uploaded), fileHeader.Filename)
	m.Uploaded = append(m.Uploaded, key)
	return key, nil
}

// GetImageURL returns a deterministic URL for the key.
func (m *MockImageService) GetImageURL(imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}
	return "https://mock-bucket.example.com/" + imageKey, nil
}

// DeleteImage records the deletion.
func (m *MockImageService) DeleteImage(imageKey string) error {
	if imageKey != "" {
		m.Deleted = append(m.Deleted, imageKey)
	}
	return nil
}
