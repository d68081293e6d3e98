package settings

import "nitro/markdown-visual/internal/service"

// Control types understood by the property pane.
const (
	ControlNumUpDown   = "NumUpDown"
	ControlColorPicker = "ColorPicker"
	ControlFontPicker  = "FontPicker"
)

// FormattingModel is the property pane description returned to the host.
type FormattingModel struct {
	Cards []FormattingCard `json:"cards"`
}

// FormattingCard is a card at the property pane.
type FormattingCard struct {
	UID         string            `json:"uid"`
	DisplayName string            `json:"displayName"`
	Groups      []FormattingGroup `json:"groups"`
}

// FormattingGroup is a group of slices inside a card.
type FormattingGroup struct {
	UID         string            `json:"uid"`
	DisplayName string            `json:"displayName,omitempty"`
	Slices      []FormattingSlice `json:"slices"`
}

// FormattingSlice is a single editable property.
type FormattingSlice struct {
	UID         string            `json:"uid"`
	DisplayName string            `json:"displayName"`
	Control     FormattingControl `json:"control"`
}

// FormattingControl describes the editor of a slice.
type FormattingControl struct {
	Type       string            `json:"type"`
	Properties ControlProperties `json:"properties"`
}

// ControlProperties holds the current value and the location where the host persists it.
type ControlProperties struct {
	Descriptor            Descriptor  `json:"descriptor"`
	Value                 interface{} `json:"value"`
	DefaultColor          string      `json:"defaultColor,omitempty"`
	IsNoFillItemSupported bool        `json:"isNoFillItemSupported,omitempty"`
}

// Descriptor points to the object property backing a slice.
type Descriptor struct {
	ObjectName   string `json:"objectName"`
	PropertyName string `json:"propertyName"`
}

// FormattingModel builds the property pane model with the current values. Display names are localized when the
// localizer is available and knows the key.
func (m Model) FormattingModel(localizer service.Localizer) FormattingModel {
	card := m.Format
	name := func(displayName, key string) string {
		if localizer == nil || key == "" {
			return displayName
		}
		if localized := localizer.GetDisplayName(key); localized != "" {
			return localized
		}
		return displayName
	}
	uid := func(slice string) string {
		return card.Name + "-" + slice
	}
	descriptor := func(property string) Descriptor {
		return Descriptor{ObjectName: card.Name, PropertyName: property}
	}

	slices := []FormattingSlice{
		{
			UID:         uid(card.FontSize.Name),
			DisplayName: name(card.FontSize.DisplayName, card.FontSize.DisplayNameKey),
			Control: FormattingControl{
				Type: ControlNumUpDown,
				Properties: ControlProperties{
					Descriptor: descriptor(card.FontSize.Name),
					Value:      card.FontSize.Value,
				},
			},
		},
		{
			UID:         uid(card.FontFamily.Name),
			DisplayName: name(card.FontFamily.DisplayName, card.FontFamily.DisplayNameKey),
			Control: FormattingControl{
				Type: ControlFontPicker,
				Properties: ControlProperties{
					Descriptor: descriptor(card.FontFamily.Name),
					Value:      card.FontFamily.Value,
				},
			},
		},
		colorSlice(uid(card.FontColor.Name), name(card.FontColor.DisplayName, card.FontColor.DisplayNameKey),
			descriptor(card.FontColor.Name), card.FontColor),
		colorSlice(uid(card.BackgroundColor.Name),
			name(card.BackgroundColor.DisplayName, card.BackgroundColor.DisplayNameKey),
			descriptor(card.BackgroundColor.Name), card.BackgroundColor),
	}

	return FormattingModel{
		Cards: []FormattingCard{
			{
				UID:         card.Name + "-card",
				DisplayName: name(card.DisplayName, card.DisplayNameKey),
				Groups:      []FormattingGroup{{UID: card.Name + "-group", Slices: slices}},
			},
		},
	}
}

func colorSlice(uid, displayName string, descriptor Descriptor, picker ColorPicker) FormattingSlice {
	return FormattingSlice{
		UID:         uid,
		DisplayName: displayName,
		Control: FormattingControl{
			Type: ControlColorPicker,
			Properties: ControlProperties{
				Descriptor:            descriptor,
				Value:                 map[string]interface{}{"value": picker.Value},
				DefaultColor:          picker.DefaultColor,
				IsNoFillItemSupported: picker.IsNoFillItemSupported,
			},
		},
	}
}
