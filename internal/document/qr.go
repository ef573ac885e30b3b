package document

import qrcode "github.com/skip2/go-qrcode"

// QRSize is the edge length in pixels of generated QR codes.
const QRSize = 256

// QRCode encodes content as a PNG.
func QRCode(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, QRSize)
}
