package utils

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// Decimal is a money amount as sent by the backend. Decimal fields arrive as strings
// ("12.50") and computed ones as numbers (12.5); both decode to the same text form.
type Decimal string

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "[Decimal.UnmarshalJSON]")
		}
		*d = Decimal(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "[Decimal.UnmarshalJSON]")
	}
	*d = Decimal(n.String())
	return nil
}

func (d Decimal) String() string {
	return string(d)
}

// Float parses the amount; an empty amount is zero.
func (d Decimal) Float() (float64, error) {
	if d == "" {
		return 0, nil
	}
	return strconv.ParseFloat(string(d), 64)
}
