package qrgenerator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	qr "github.com/skip2/go-qrcode"

	"github.com/Xausdorf/qris-hub/internal/domain/qrcode"
)

type Generator struct {
	level qr.RecoveryLevel
}

func NewGenerator(level qr.RecoveryLevel) *Generator {
	return &Generator{level: level}
}

func (g *Generator) Generate(ctx context.Context, content string, opts qrcode.RenderOptions) (*qrcode.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	code, err := qr.New(content, g.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qrcode.ErrCapacityExceeded, err)
	}
	// The library quiet zone is fixed at four modules, so the margin is drawn here.
	code.DisableBorder = true
	code.ForegroundColor = opts.Dark
	code.BackgroundColor = opts.Light

	modules := len(code.Bitmap())
	total := modules + 2*opts.Margin
	scale := max(opts.Size/total, 1)
	side := max(opts.Size, total*scale)
	symbol := modules * scale
	offset := (side - symbol) / 2

	canvas := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Light), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(offset, offset, offset+symbol, offset+symbol), code.Image(symbol), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &qrcode.Image{PNG: buf.Bytes()}, nil
}
