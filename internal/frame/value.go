package frame

import (
	"encoding/json"
	"strconv"
)

// Kind tags a Value as either a floating point number or a text token.
type Kind uint8

const (
	KindNumber Kind = iota
	KindText
)

// Value is a tagged union over float64 and string. Values of different kinds
// are never equal, a numeric zero does not equal an empty text token.
type Value struct {
	kind Kind
	num  float64
	text string
}

func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Parse infers the kind from the string form: anything float-parseable
// becomes a number, everything else a text token.
func Parse(s string) Value {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(v)
	}
	return Text(s)
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}

func (v Value) Number() float64 {
	return v.num
}

func (v Value) Text() string {
	return v.text
}

func (v Value) Equal(other Value) bool {
	return v == other
}

func (v Value) String() string {
	if v.kind == KindNumber {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	return v.text
}

// Interface returns the underlying float64 or string.
func (v Value) Interface() interface{} {
	if v.kind == KindNumber {
		return v.num
	}
	return v.text
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*v = Number(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Text(s)
	return nil
}
