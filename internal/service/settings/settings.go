package settings

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"nitro/markdown-visual/internal/service"
)

var (
	colorRegex      = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]+|rgba?\([0-9.,% ]+\))$`)
	fontFamilyRegex = regexp.MustCompile(`^[a-zA-Z0-9 ,'"_-]+$`)
)

// Names used to persist the settings at the host.
const (
	CardName            = "formatting"
	FontSizeName        = "fontSize"
	FontColorName       = "fontColor"
	BackgroundColorName = "backgroundColor"
	FontFamilyName      = "fontFamily"
)

// NumUpDown is a numeric slice.
type NumUpDown struct {
	Name           string
	DisplayName    string
	DisplayNameKey string
	Value          float64
}

// ColorPicker is a color slice. Colors are kept as hex strings.
type ColorPicker struct {
	Name                  string
	DisplayName           string
	DisplayNameKey        string
	Value                 string
	DefaultColor          string
	IsNoFillItemSupported bool
}

// FontPicker is a font family slice.
type FontPicker struct {
	Name           string
	DisplayName    string
	DisplayNameKey string
	Value          string
}

// Card groups the text formatting slices.
type Card struct {
	Name           string
	DisplayName    string
	DisplayNameKey string

	FontSize        NumUpDown
	FontFamily      FontPicker
	FontColor       ColorPicker
	BackgroundColor ColorPicker
}

// Model is the visual settings model.
type Model struct {
	Format Card
}

// Defaults holds overrides for the default values. Zero values keep the built-in default.
type Defaults struct {
	FontSize        float64 `mapstructure:"fontSize"`
	FontFamily      string  `mapstructure:"fontFamily"`
	FontColor       string  `mapstructure:"fontColor"`
	BackgroundColor string  `mapstructure:"backgroundColor"`
}

// New returns the model with the default values.
func New() Model {
	return Model{
		Format: Card{
			Name:           CardName,
			DisplayName:    "Format",
			DisplayNameKey: "F_Formatting",
			FontSize: NumUpDown{
				Name:           FontSizeName,
				DisplayName:    "Text Size",
				DisplayNameKey: "F_FontSize",
				Value:          14,
			},
			FontFamily: FontPicker{
				Name:           FontFamilyName,
				DisplayName:    "Font Family",
				DisplayNameKey: "F_FontFamily",
				Value:          "Segoe UI",
			},
			FontColor: ColorPicker{
				Name:           FontColorName,
				DisplayName:    "Text Color",
				DisplayNameKey: "F_FontColor",
				Value:          "#1F2328",
				DefaultColor:   "#1F2328",
			},
			BackgroundColor: ColorPicker{
				Name:                  BackgroundColorName,
				DisplayName:           "Background Color",
				DisplayNameKey:        "F_BackgroundColor",
				Value:                 "#ffffff",
				DefaultColor:          "#ffffff",
				IsNoFillItemSupported: true,
			},
		},
	}
}

// WithDefaults returns a copy of the model with the non zero defaults applied.
func (m Model) WithDefaults(d Defaults) Model {
	if d.FontSize > 0 {
		m.Format.FontSize.Value = d.FontSize
	}
	if d.FontFamily != "" {
		m.Format.FontFamily.Value = d.FontFamily
	}
	if d.FontColor != "" {
		m.Format.FontColor.Value = d.FontColor
		m.Format.FontColor.DefaultColor = d.FontColor
	}
	if d.BackgroundColor != "" {
		m.Format.BackgroundColor.Value = d.BackgroundColor
		m.Format.BackgroundColor.DefaultColor = d.BackgroundColor
	}
	return m
}

// Populate returns a copy of the model with the values persisted at the data views. Values with an unexpected type,
// or that are not a valid CSS value for the property, are ignored and the current value is kept.
func (m Model) Populate(dataViews []service.DataView) Model {
	if len(dataViews) == 0 {
		return m
	}
	objects, ok := dataViews[0].Metadata.Objects[m.Format.Name]
	if !ok {
		return m
	}

	if value, ok := number(objects[m.Format.FontSize.Name]); ok {
		m.Format.FontSize.Value = value
	}
	if value, ok := objects[m.Format.FontFamily.Name].(string); ok && fontFamilyRegex.MatchString(value) {
		m.Format.FontFamily.Value = value
	}
	if value, ok := color(objects[m.Format.FontColor.Name]); ok {
		m.Format.FontColor.Value = value
	}
	if value, ok := color(objects[m.Format.BackgroundColor.Name]); ok {
		m.Format.BackgroundColor.Value = value
	}
	return m
}

// Style returns the CSS declarations to be applied at the container, in order.
func (m Model) Style() [][2]string {
	return [][2]string{
		{"font-size", fmt.Sprintf("%spx", strconv.FormatFloat(m.Format.FontSize.Value, 'f', -1, 64))},
		{"font-family", m.Format.FontFamily.Value},
		{"color", m.Format.FontColor.Value},
		{"background-color", m.Format.BackgroundColor.Value},
	}
}

func number(value interface{}) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	default:
		return 0, false
	}
	return n, n > 0 && !math.IsInf(n, 0) && !math.IsNaN(n)
}

// color accepts both a plain string and the host fill structure '{"solid": {"color": "#fff"}}'.
func color(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, colorRegex.MatchString(v)
	case map[string]interface{}:
		solid, ok := v["solid"].(map[string]interface{})
		if !ok {
			return "", false
		}
		c, ok := solid["color"].(string)
		return c, ok && colorRegex.MatchString(c)
	default:
		return "", false
	}
}
