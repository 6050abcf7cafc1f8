package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/models"
)

const (
	BorderWidth = 7
	LogoSize    = 180
	JPEGQuality = 90

	outputMimeType = "image/jpeg"
)

var acceptedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// ExtensionFor maps an image MIME type to the file extension used in
// storage paths. Unrecognised types get "bin".
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/jpeg":
		return "jpg"
	default:
		return "bin"
	}
}

// Result is an encoded composite ready for upload.
type Result struct {
	Bytes    []byte
	MimeType string
	Width    int
	Height   int
}

// Info describes an image without decoding its pixels.
type Info struct {
	MimeType string
	Width    int
	Height   int
}

// DetectImageType sniffs the MIME type of data and rejects anything that is
// not png, jpeg or webp.
func DetectImageType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperrors.Validation("image is empty")
	}
	mimeType := http.DetectContentType(data)
	if !acceptedTypes[mimeType] {
		return "", apperrors.Validation("unsupported image type %q", mimeType)
	}
	return mimeType, nil
}

// Inspect validates data and reads its dimensions from the image header.
func Inspect(data []byte) (*Info, error) {
	mimeType, err := DetectImageType(data)
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "failed to read image header")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, apperrors.Validation("image has no pixels")
	}
	return &Info{MimeType: mimeType, Width: cfg.Width, Height: cfg.Height}, nil
}

// NormalizeToCanvas stretches img to the canvas size of the orientation.
// Aspect ratio is not preserved.
func NormalizeToCanvas(img image.Image, orientation models.Orientation) *image.RGBA {
	width, height := orientation.Canvas()
	return resize(img, width, height)
}

// MergeLogo frames main with a white border and places logo in the
// bottom-right corner, inset by the border width.
func MergeLogo(main, logo []byte, orientation models.Orientation) (*Result, error) {
	if _, err := DetectImageType(main); err != nil {
		return nil, fmt.Errorf("main image: %w", err)
	}
	if _, err := DetectImageType(logo); err != nil {
		return nil, fmt.Errorf("logo image: %w", err)
	}

	mainImg, err := decode(main)
	if err != nil {
		return nil, fmt.Errorf("main image: %w", err)
	}
	logoImg, err := decode(logo)
	if err != nil {
		return nil, fmt.Errorf("logo image: %w", err)
	}

	canvas := frame(mainImg, orientation)
	box := containFit(logoImg, LogoSize)

	bounds := canvas.Bounds()
	origin := image.Pt(bounds.Dx()-BorderWidth-LogoSize, bounds.Dy()-BorderWidth-LogoSize)
	draw.Draw(canvas, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(LogoSize, LogoSize))}, box, image.Point{}, draw.Over)

	return encode(canvas)
}

// AddBorder applies the same framing as MergeLogo without a logo layer.
func AddBorder(main []byte, orientation models.Orientation) (*Result, error) {
	if _, err := DetectImageType(main); err != nil {
		return nil, fmt.Errorf("main image: %w", err)
	}
	mainImg, err := decode(main)
	if err != nil {
		return nil, fmt.Errorf("main image: %w", err)
	}
	return encode(frame(mainImg, orientation))
}

// frame returns a white canvas of the orientation's size with img stretched
// over the area inside the border.
func frame(img image.Image, orientation models.Orientation) *image.RGBA {
	width, height := orientation.Canvas()
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	inner := resize(img, width-2*BorderWidth, height-2*BorderWidth)
	draw.Draw(canvas, image.Rect(BorderWidth, BorderWidth, width-BorderWidth, height-BorderWidth), inner, image.Point{}, draw.Src)
	return canvas
}

// containFit scales img to fit inside a size×size box, centred on a
// transparent background.
func containFit(img image.Image, size int) *image.RGBA {
	box := image.NewRGBA(image.Rect(0, 0, size, size))

	src := img.Bounds()
	scale := min(float64(size)/float64(src.Dx()), float64(size)/float64(src.Dy()))
	w := max(1, int(float64(src.Dx())*scale+0.5))
	h := max(1, int(float64(src.Dy())*scale+0.5))

	offset := image.Pt((size-w)/2, (size-h)/2)
	draw.BiLinear.Scale(box, image.Rectangle{Min: offset, Max: offset.Add(image.Pt(w, h))}, img, src, draw.Src, nil)
	return box
}

func resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "failed to decode image")
	}
	return img, nil
}

func encode(img *image.RGBA) (*Result, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	bounds := img.Bounds()
	return &Result{
		Bytes:    buf.Bytes(),
		MimeType: outputMimeType,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}
