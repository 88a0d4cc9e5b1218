package domain

import (
	"database/sql/driver"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// StringList stores a list of strings as a JSON text column, portable
// across the postgres and sqlite dialects.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := jsoniter.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		return jsoniter.Unmarshal(v, (*[]string)(l))
	case string:
		return jsoniter.Unmarshal([]byte(v), (*[]string)(l))
	default:
		return fmt.Errorf("unsupported StringList source type %T", src)
	}
}
