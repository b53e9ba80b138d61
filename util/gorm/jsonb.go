package gorm

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

type Jsonb json.RawMessage

func ToJsonb(value interface{}) (Jsonb, error) {
	return json.Marshal(value)
}

func (j Jsonb) GormDataType() string {
	return "jsonb"
}

func (j Jsonb) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}

	return json.RawMessage(j).MarshalJSON()
}

func (j Jsonb) Unmarshal(value interface{}) error {
	if len(j) == 0 {
		return nil
	}

	return json.Unmarshal(j, value)
}

// Scan accepts both []byte and string since sqlite may return
// either depending on column affinity.
func (j *Jsonb) Scan(value interface{}) error {
	switch value := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = value
	case string:
		*j = Jsonb(value)
	default:
		return errors.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	return nil
}

func (j Jsonb) String() string {
	return string(j)
}
