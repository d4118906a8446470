package reading

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

// UID is the stable identity of one physical observation. Flags are keyed by it.
type UID int64

// Depth is the centre depth of a sensor in centimetres, negative below surface.
type Depth int

const (
	Depth5  Depth = -5
	Depth15 Depth = -15
	Depth45 Depth = -45
	Depth80 Depth = -80
)

// RecognizedDepths lists the depths that form streams, in processing order.
var RecognizedDepths = []Depth{Depth5, Depth15, Depth45, Depth80}

func (d Depth) IsRecognized() bool {
	for _, known := range RecognizedDepths {
		if d == known {
			return true
		}
	}
	return false
}

type Reading struct {
	UID          UID       `json:"uid"`
	Timestamp    time.Time `json:"timestamp"`
	RawTimestamp string    `json:"raw_timestamp"`
	NodeSerial   string    `json:"node_serial_no"`
	Depth        Depth     `json:"center_depth"`
	Treatment    string    `json:"treatment"`
	Value        float64   `json:"soil_moisture"`
	Temperature  *float64  `json:"soil_temperature,omitempty"`

	// Outlier and OutlierSource carry the manual or automated outlier decision
	// the API already holds for this reading.
	Outlier       bool   `json:"is_vwc_outlier"`
	OutlierSource string `json:"vwc_outlier_who_decided,omitempty"`

	// Position is the dense index inside its stream, assigned by NewStream.
	Position int `json:"position"`
}

// StreamKey identifies one sensor stream: site code, subplot, treatment and depth.
type StreamKey struct {
	Code      string `json:"code"`
	Subplot   string `json:"subplot"`
	Treatment string `json:"treatment"`
	Depth     Depth  `json:"depth"`
}

func (k StreamKey) WithDepth(depth Depth) StreamKey {
	k.Depth = depth
	return k
}

// String returns a slug usable as a log attribute or metric label,
// e.g. "abc-1-b-5cm".
func (k StreamKey) String() string {
	depth := int(k.Depth)
	if depth < 0 {
		depth = -depth
	}
	return slug.Make(fmt.Sprintf("%s %s %s %dcm", k.Code, k.Subplot, k.Treatment, depth))
}

// FilterTreatment keeps the readings recorded under the given treatment label.
func FilterTreatment(readings []Reading, treatment string) []Reading {
	filtered := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if r.Treatment == treatment {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
