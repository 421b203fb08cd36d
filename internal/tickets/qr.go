package tickets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/yeqown/go-qrcode"
)

// QRContentType is the media type RenderQR produces.
const QRContentType = "image/jpeg"

// renderQR encodes text as a QR image. The encoder writes to a path, so the
// image goes through a temp file.
func renderQR(text string, blockWidth int) ([]byte, error) {
	if blockWidth <= 0 || blockWidth > 255 {
		blockWidth = 8
	}
	qrc, err := qrcode.New(text, qrcode.WithQRWidth(uint8(blockWidth)))
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	dir, err := os.MkdirTemp("", "rp-qr-")
	if err != nil {
		return nil, fmt.Errorf("qr temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, uuid.NewString()+".jpeg")
	if err := qrc.Save(path); err != nil {
		return nil, fmt.Errorf("save qr: %w", err)
	}
	return os.ReadFile(path)
}
