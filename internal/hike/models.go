package hike

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Hike struct {
	ID        Value    `json:"rid"`
	Altitude  Value    `json:"alt"`
	Level     string   `json:"niveaux"`
	Name      string   `json:"randonnee"`
	Minutes   Value    `json:"temps_minute"`
	Elevation Value    `json:"deniv"`
	Distance  Value    `json:"kms"`
	Region    string   `json:"regions"`
	Valley    string   `json:"vallees"`
	IceAxe    Value    `json:"piolet"`
	Crampons  Value    `json:"crampons"`
	Comments  Value    `json:"n_com"`
	Rating    *float64 `json:"note,omitempty"`
	RatingSD  *float64 `json:"note_sd,omitempty"`
	URL       string   `json:"url"`

	// set when the dataset gives kms or deniv as the number 0, which the
	// popup shows as unknown; the string "0" is kept
	zeroDistance  bool
	zeroElevation bool
}

func (h *Hike) UnmarshalJSON(b []byte) error {
	type fields Hike
	var raw struct {
		fields
		Distance  json.RawMessage `json:"kms"`
		Elevation json.RawMessage `json:"deniv"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*h = Hike(raw.fields)

	var err error
	if h.Distance, h.zeroDistance, err = decodeMeasure(raw.Distance); err != nil {
		return fmt.Errorf("kms: %w", err)
	}
	if h.Elevation, h.zeroElevation, err = decodeMeasure(raw.Elevation); err != nil {
		return fmt.Errorf("deniv: %w", err)
	}
	return nil
}

func decodeMeasure(raw json.RawMessage) (Value, bool, error) {
	if len(raw) == 0 {
		return "", false, nil
	}
	var v Value
	if err := v.UnmarshalJSON(raw); err != nil {
		return "", false, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || v == "" {
		return v, false, nil
	}
	f, ok := v.Float()
	return v, v == "false" || ok && f == 0, nil
}

// Value is a JSON scalar as display text. Strings are kept verbatim; numbers
// are written in their shortest form, so 42.0 and 42 both read "42".
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	if bytes.Equal(b, []byte("true")) || bytes.Equal(b, []byte("false")) {
		*v = Value(b)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid scalar %s", b)
	}
	*v = FloatValue(f)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(string(v), 64); err == nil {
		return []byte(v), nil
	}
	return json.Marshal(string(v))
}

func (v Value) String() string { return string(v) }

// Float parses the value; ok is false for empty or non-numeric text.
func (v Value) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Truthy mirrors the dataset's loose booleans: empty, "0" and "false" are false.
func (v Value) Truthy() bool {
	if f, ok := v.Float(); ok {
		return f != 0
	}
	s := strings.TrimSpace(string(v))
	return s != "" && s != "false"
}

// FloatValue renders f the way the JSON dataset would.
func FloatValue(f float64) Value {
	return Value(strconv.FormatFloat(f, 'f', -1, 64))
}
