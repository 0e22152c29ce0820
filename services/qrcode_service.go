package services

import (
	"fmt"

	"github.com/Jomkit/Omakase/config"
	"github.com/skip2/go-qrcode"
)

// QRCodeService generates the QR codes printed on table-tent cards; each
// code links a physical table to the dine-in ordering flow.
type QRCodeService interface {
	TableQRCode(tableNumber uint) ([]byte, error)
}

// DefaultQRCodeService encodes URLs under the application's base URL.
type DefaultQRCodeService struct {
	BaseURL string
}

var qrCodeServiceInstance QRCodeService

// InitQRCodeService initializes the QR code service.
func InitQRCodeService() QRCodeService {
	baseURL := "http://localhost:8080"
	if cfg := config.GetConfig(); cfg != nil && cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	qrCodeServiceInstance = &DefaultQRCodeService{BaseURL: baseURL}
	return qrCodeServiceInstance
}

// GetQRCodeService returns the initialized QR code service instance.
func GetQRCodeService() QRCodeService {
	return qrCodeServiceInstance
}

// SetQRCodeService sets the QR code service instance (primarily for testing).
func SetQRCodeService(service QRCodeService) {
	qrCodeServiceInstance = service
}

// TableQRCode returns a PNG QR code linking to the dine-in flow with the
// table preselected.
func (s *DefaultQRCodeService) TableQRCode(tableNumber uint) ([]byte, error) {
	data := fmt.Sprintf("%s/dine-in/select-table?table_number=%d", s.BaseURL, tableNumber)
	return qrcode.Encode(data, qrcode.Medium, 256)
}
