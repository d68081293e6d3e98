package service

import "io"

// UpdateType flags which aspects of the visual changed on an update cycle.
type UpdateType int

// Update types sent by the host. They can be combined.
const (
	UpdateTypeData      UpdateType = 2
	UpdateTypeResize    UpdateType = 4
	UpdateTypeViewMode  UpdateType = 8
	UpdateTypeStyle     UpdateType = 16
	UpdateTypeResizeEnd UpdateType = 32
	UpdateTypeAll       UpdateType = 62
)

// Has checks if the given flag is set.
func (t UpdateType) Has(flag UpdateType) bool {
	return (t & flag) != 0
}

// DataViewObjects maps an object name to its property values, as set at the property pane.
type DataViewObjects map[string]map[string]interface{}

// DataViewMetadata holds the metadata of a data view.
type DataViewMetadata struct {
	Objects DataViewObjects
}

// DataViewSingle holds a single value data view.
type DataViewSingle struct {
	Value interface{}
}

// DataView is the data payload delivered by the host.
type DataView struct {
	Metadata DataViewMetadata
	Single   *DataViewSingle
}

// UpdateOptions is the payload of one update cycle.
type UpdateOptions struct {
	Type      UpdateType
	DataViews []DataView
}

// SingleValue returns the single value of the first data view, if any.
func (o UpdateOptions) SingleValue() (interface{}, bool) {
	if len(o.DataViews) == 0 || o.DataViews[0].Single == nil {
		return nil, false
	}
	return o.DataViews[0].Single.Value, true
}

// Navigator opens links on behalf of the visual.
type Navigator interface {
	LaunchURL(url string)
}

// Localizer resolves display name keys into localized strings.
type Localizer interface {
	GetDisplayName(key string) string
}

// EventService receives the rendering telemetry.
type EventService interface {
	RenderingStarted(options UpdateOptions)
	RenderingFinished(options UpdateOptions)
}

// EnhancedError is an error able to print extra details about the failure.
type EnhancedError interface {
	error
	PrettyPrint(w io.Writer)
}
