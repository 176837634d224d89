package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString accepts a JSON string, number or boolean and keeps its text
// form. Numbers are formatted the shortest way that round-trips, so 2, 2.0
// and "2" all become "2" and 0.5 becomes "0.5". null leaves the value empty.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexString(strconv.FormatBool(v))
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("flexstring: cannot use %s as text", b)
	}
	*f = FlexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

func (f FlexString) String() string { return string(f) }
