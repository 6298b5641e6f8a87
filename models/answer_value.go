package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

type AnswerKind string

const (
	AnswerKindSingle AnswerKind = "single"
	AnswerKindMulti  AnswerKind = "multi"
	AnswerKindBool   AnswerKind = "bool"
)

// AnswerValue is the closed variant shared by Question.CorrectAnswer and
// Answer.UserAnswer: a single choice key, a set of choice keys, or a boolean.
// It is stored as plain JSON (string / array / bool) so rows stay readable.
type AnswerValue struct {
	Kind   AnswerKind
	Single string
	Multi  []string
	Bool   bool
}

func SingleAnswer(key string) AnswerValue {
	return AnswerValue{Kind: AnswerKindSingle, Single: key}
}

func MultiAnswer(keys ...string) AnswerValue {
	return AnswerValue{Kind: AnswerKindMulti, Multi: keys}
}

func BoolAnswer(v bool) AnswerValue {
	return AnswerValue{Kind: AnswerKindBool, Bool: v}
}

func (v AnswerValue) IsZero() bool {
	return v.Kind == ""
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerKindSingle:
		return json.Marshal(v.Single)
	case AnswerKindMulti:
		if v.Multi == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.Multi)
	case AnswerKindBool:
		return json.Marshal(v.Bool)
	}
	return []byte("null"), nil
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = SingleAnswer(s)
		return nil
	}
	var m []string
	if err := json.Unmarshal(data, &m); err == nil {
		*v = MultiAnswer(m...)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolAnswer(b)
		return nil
	}
	return fmt.Errorf("answer must be a string, an array of strings or a boolean, got %s", data)
}

// Value implements driver.Valuer so GORM stores the variant as a JSON column.
func (v AnswerValue) Value() (driver.Value, error) {
	if v.IsZero() {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (v *AnswerValue) Scan(src interface{}) error {
	if src == nil {
		*v = AnswerValue{}
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return v.UnmarshalJSON(data)
	case string:
		return v.UnmarshalJSON([]byte(data))
	}
	return errors.New("unsupported source type for AnswerValue")
}

func (AnswerValue) GormDataType() string {
	return "jsonb"
}
