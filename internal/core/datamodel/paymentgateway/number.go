package paymentgateway

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// JSONNumber keeps the textual form of an amount the gateway may send either
// as a JSON number or as a quoted string.
type JSONNumber string

func (n *JSONNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = JSONNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = JSONNumber(num.String())
	return nil
}

func (n JSONNumber) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(string(n), 64); err == nil {
		return []byte(n), nil
	}
	return json.Marshal(string(n))
}

func (n JSONNumber) String() string {
	return string(n)
}
