package service

import (
	"strings"

	"github.com/skip2/go-qrcode"
)

const lightningScheme = "lightning:"

type QRGenerator interface {
	Generate(paymentRequest string) ([]byte, error)
}

// DefaultQRGenerator renders a BOLT11 payment request as a PNG. The request is
// upper-cased so the encoder can use the denser alphanumeric mode.
type DefaultQRGenerator struct {
	Size int
}

func (g DefaultQRGenerator) Generate(paymentRequest string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	data := strings.ToUpper(lightningScheme + paymentRequest)
	return qrcode.Encode(data, qrcode.Medium, size)
}
