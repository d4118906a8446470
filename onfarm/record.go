package onfarm

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one raw soil moisture row as returned by the on-farm API.
// The API is loose about JSON types: numbers may arrive as strings and any
// field may be null, so the fields use tolerant wrapper types.
type Record struct {
	NodeSerialNo         String `json:"node_serial_no"`
	CenterDepth          Number `json:"center_depth"`
	VWC                  Number `json:"vwc"`
	SoilTemp             Number `json:"soil_temp"`
	UID                  Number `json:"uid"`
	Timestamp            String `json:"timestamp"`
	IsVWCOutlier         Bool   `json:"is_vwc_outlier"`
	VWCOutlierWhoDecided String `json:"vwc_outlier_who_decided"`
	Treatment            String `json:"treatment"`
}

type RecordList []Record

var nullLiteral = []byte("null")

// Number is a float that accepts JSON numbers and numeric strings.
// Valid is false for null, empty, non-numeric or non-finite values.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, nullLiteral) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	if raw == "" {
		return nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		// not a usable number, treat as missing
		return nil
	}

	n.Value = value
	n.Valid = true
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return nullLiteral, nil
	}
	return json.Marshal(n.Value)
}

// String accepts JSON strings and numbers; null becomes the empty string.
type String string

func (s *String) UnmarshalJSON(data []byte) error {
	*s = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, nullLiteral) {
		return nil
	}

	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = String(strings.TrimSpace(v))
		return nil
	}

	*s = String(string(data))
	return nil
}

// Bool accepts true/false, 0/1 and their string forms; null is false.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	*b = false
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, nullLiteral) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		raw = v
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "t", "yes":
		*b = true
	}
	return nil
}
