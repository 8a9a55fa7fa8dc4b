package records

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque primary key as it appears on the wire. Backends may key
// rows by UUID strings or by integer identity columns; both decode to the
// same string form.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*id = ID(n.String())
		return nil
	default:
		return fmt.Errorf("records: invalid id %s", b)
	}
}

func (id ID) String() string {
	return string(id)
}
