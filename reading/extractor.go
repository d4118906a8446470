package reading

import (
	"math"

	"github.com/timgluz/soilflag/onfarm"
)

// Extract normalizes raw API records into readings.
//
// Records without a node serial number, centre depth, moisture value or uid
// are dropped, as are records whose uid or depth is not a whole number; the
// number of dropped records is returned alongside.
// Timestamps are kept raw here and parsed when a stream is built.
func Extract(records []onfarm.Record) ([]Reading, int) {
	readings := make([]Reading, 0, len(records))
	dropped := 0

	for i := range records {
		rec := &records[i]
		if rec.NodeSerialNo == "" || !rec.CenterDepth.Valid || !rec.VWC.Valid || !rec.UID.Valid {
			dropped++
			continue
		}

		uid, ok := wholeNumber(rec.UID.Value)
		if !ok {
			dropped++
			continue
		}
		depth, ok := wholeNumber(rec.CenterDepth.Value)
		if !ok {
			dropped++
			continue
		}

		r := Reading{
			UID:           UID(uid),
			RawTimestamp:  string(rec.Timestamp),
			NodeSerial:    string(rec.NodeSerialNo),
			Depth:         Depth(depth),
			Treatment:     string(rec.Treatment),
			Value:         rec.VWC.Value,
			Outlier:       bool(rec.IsVWCOutlier),
			OutlierSource: string(rec.VWCOutlierWhoDecided),
		}

		if rec.SoilTemp.Valid {
			temp := rec.SoilTemp.Value
			r.Temperature = &temp
		}

		readings = append(readings, r)
	}

	return readings, dropped
}

// wholeNumber reports whether f is an integer inside the int64 range.
func wholeNumber(f float64) (int64, bool) {
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
