package parse

import (
	"testing"
)

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestParseStringAs_Primitives(t *testing.T) {
	if got, err := ParseStringAs[int](" 42 "); err != nil || got != 42 {
		t.Errorf("int: %v, %v", got, err)
	}
	if got, err := ParseStringAs[bool]("true"); err != nil || !got {
		t.Errorf("bool: %v, %v", got, err)
	}
	if got, err := ParseStringAs[float64]("3.5"); err != nil || got != 3.5 {
		t.Errorf("float: %v, %v", got, err)
	}
	if got, err := ParseStringAs[uint8]("7"); err != nil || got != 7 {
		t.Errorf("uint8: %v, %v", got, err)
	}
	if got, err := ParseStringAs[string]("hello"); err != nil || got != "hello" {
		t.Errorf("string: %v, %v", got, err)
	}
	if _, err := ParseStringAs[int]("forty-two"); err == nil {
		t.Error("expected error for non-numeric int")
	}
}

func TestParseStringAs_SchemaWrappedPrimitives(t *testing.T) {
	if got, err := ParseStringAs[int](`{"type":"integer","value":5}`); err != nil || got != 5 {
		t.Errorf("int: %v, %v", got, err)
	}
	if got, err := ParseStringAs[string](`{"type":"string","value":"x"}`); err != nil || got != "x" {
		t.Errorf("string: %v, %v", got, err)
	}
}

func TestParseStringAs_Structs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"valid", `{"name":"John","age":30}`},
		{"unquoted keys", `{name: 'John', age: 30}`},
		{"trailing comma", `{"name":"John","age":30,}`},
		{"code fence", "```json\n{\"name\":\"John\",\"age\":30}\n```"},
		{"schema envelope", `{"name":{"type":"string","value":"John"},"age":{"type":"integer","value":30}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringAs[person](tt.input)
			if err != nil {
				t.Fatalf("ParseStringAs: %v", err)
			}
			if got.Name != "John" || got.Age != 30 {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestParseStringAs_Slice(t *testing.T) {
	got, err := ParseStringAs[[]string](`["a", "b"]`)
	if err != nil || len(got) != 2 || got[1] != "b" {
		t.Errorf("got %v, %v", got, err)
	}
}
