package qrcode

//go:generate mockgen -source=qrcode.go -destination=mocks/mock_generator.go -package=mocks

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

const (
	DefaultSize   = 300
	DefaultMargin = 1
)

var (
	DefaultDark  = color.RGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xff}
	DefaultLight = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

var (
	ErrCapacityExceeded = errors.New("content exceeds qr code capacity")
	ErrInvalidColor     = errors.New("invalid hex color")
)

// RenderOptions controls the rendered image. Size is the image width in
// pixels, Margin is the quiet zone in modules.
type RenderOptions struct {
	Size   int
	Margin int
	Dark   color.Color
	Light  color.Color
}

func (o RenderOptions) WithDefaults() RenderOptions {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Margin < 0 {
		o.Margin = 0
	}
	if o.Dark == nil {
		o.Dark = DefaultDark
	}
	if o.Light == nil {
		o.Light = DefaultLight
	}
	return o
}

type Image struct {
	PNG []byte
}

func (i *Image) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(i.PNG)
}

type Generator interface {
	Generate(ctx context.Context, content string, opts RenderOptions) (*Image, error)
}

// ParseHexColor accepts "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
