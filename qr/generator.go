package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	MinTableNumber = 1
	MaxTableNumber = 50

	DefaultSize = 290
)

var ErrTableNumberRange = fmt.Errorf("table number must be between %d and %d", MinTableNumber, MaxTableNumber)

// Generator renders the QR codes printed on the tables. Every code points at
// the menu page of one table and never changes for that table.
type Generator struct {
	BaseURL string
	Size    int
}

func NewGenerator(baseURL string) *Generator {
	return &Generator{BaseURL: strings.TrimRight(baseURL, "/"), Size: DefaultSize}
}

// Code is one table's QR code as served to clients.
type Code struct {
	Table  int    `json:"table"`
	URL    string `json:"url"`
	Base64 string `json:"qr_code_base64"`
}

func checkNumber(n int) error {
	if n < MinTableNumber || n > MaxTableNumber {
		return ErrTableNumberRange
	}
	return nil
}

func (g *Generator) MenuURL(n int) (string, error) {
	if err := checkNumber(n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/menu?table=%d", g.BaseURL, n), nil
}

// PNG encodes the menu URL of table n at the lowest recovery level.
func (g *Generator) PNG(n int) ([]byte, error) {
	url, err := g.MenuURL(n)
	if err != nil {
		return nil, err
	}
	size := g.Size
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(url, qrcode.Low, size)
	if err != nil {
		return nil, fmt.Errorf("encode QR for table %d: %w", n, err)
	}
	return png, nil
}

func (g *Generator) Base64(n int) (string, error) {
	png, err := g.PNG(n)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

func (g *Generator) Code(n int) (Code, error) {
	url, err := g.MenuURL(n)
	if err != nil {
		return Code{}, err
	}
	b64, err := g.Base64(n)
	if err != nil {
		return Code{}, err
	}
	return Code{Table: n, URL: url, Base64: b64}, nil
}

// Codes returns the codes of tables 1..count.
func (g *Generator) Codes(count int) ([]Code, error) {
	if err := checkNumber(count); err != nil {
		return nil, err
	}
	codes := make([]Code, 0, count)
	for n := 1; n <= count; n++ {
		c, err := g.Code(n)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, nil
}

// Numbers returns 1..count, or ErrTableNumberRange.
func Numbers(count int) ([]int, error) {
	if err := checkNumber(count); err != nil {
		return nil, err
	}
	out := make([]int, count)
	for i := range out {
		out[i] = i + 1
	}
	return out, nil
}

func IsRangeError(err error) bool {
	return errors.Is(err, ErrTableNumberRange)
}
