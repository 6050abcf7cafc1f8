package models

import "strings"

// Style is one of the fixed rendering presets applied to a source photo.
type Style string

const (
	StyleAnime      Style = "Anime"
	StyleWatercolor Style = "Watercolor"
	StyleOil        Style = "Oil"
	StyleDisney     Style = "Disney"
)

var allStyles = [...]Style{StyleAnime, StyleWatercolor, StyleOil, StyleDisney}

// AllStyles returns every style in generation order.
func AllStyles() []Style {
	styles := make([]Style, len(allStyles))
	copy(styles, allStyles[:])
	return styles
}

func ParseStyle(s string) (Style, bool) {
	for _, style := range allStyles {
		if strings.EqualFold(string(style), strings.TrimSpace(s)) {
			return style, true
		}
	}
	return "", false
}

// Slug is the lowercase form used in storage paths.
func (s Style) Slug() string {
	return strings.ToLower(string(s))
}

func (s Style) String() string {
	return string(s)
}

// Canvas dimensions shared by every generated and composited image.
const (
	CanvasLong  = 1248
	CanvasShort = 832
)

type Orientation bool

const (
	Portrait  Orientation = false
	Landscape Orientation = true
)

// OrientationFor treats square images as landscape.
func OrientationFor(width, height int) Orientation {
	return Orientation(width >= height)
}

// Canvas returns the target width and height for the orientation.
func (o Orientation) Canvas() (width, height int) {
	if o == Landscape {
		return CanvasLong, CanvasShort
	}
	return CanvasShort, CanvasLong
}

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}
