package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs parses content into T. Primitive kinds are converted with
// strconv; everything else is decoded as JSON, repaired if necessary.
//
//	person, err := parse.ParseStringAs[Person](`{name: 'John', age: 30}`)
//	n, err := parse.ParseStringAs[int]("42")
func ParseStringAs[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()

	switch target.Kind() {
	case reflect.String:
		if unwrapped, err := tryUnwrapPrimitive(content); err == nil {
			target.SetString(unwrapped)
		} else {
			target.SetString(content)
		}
		return result, nil

	case reflect.Bool, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		text := strings.TrimSpace(content)
		err := setScalar(target, text)
		if err != nil {
			unwrapped, unwrapErr := tryUnwrapPrimitive(text)
			if unwrapErr != nil || setScalar(target, unwrapped) != nil {
				return result, fmt.Errorf("failed to parse content as %s: %w", target.Kind(), err)
			}
		}
		return result, nil
	}

	candidate := stripCodeFence(content)
	err := json.Unmarshal([]byte(candidate), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: %w (repair error: %v)", result, err, repairErr)
	}
	if err = json.Unmarshal([]byte(repaired), &result); err == nil {
		return result, nil
	}

	// LLMs sometimes fill a schema instead of producing data.
	if unwrapped, unwrapErr := unwrapSchemaValues(repaired); unwrapErr == nil {
		var retry T
		if json.Unmarshal([]byte(unwrapped), &retry) == nil {
			return retry, nil
		}
	}
	return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
}

func setScalar(v reflect.Value, text string) error {
	switch v.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(i)
	default:
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return err
		}
		v.SetUint(u)
	}
	return nil
}

// stripCodeFence removes a surrounding ```json ... ``` block.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// tryUnwrapPrimitive extracts the value of a {"type": ..., "value": ...}
// envelope as a string.
func tryUnwrapPrimitive(content string) (string, error) {
	if !strings.HasPrefix(strings.TrimSpace(content), "{") {
		return "", fmt.Errorf("not a schema-wrapped value")
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}

	value, ok := envelopeValue(data)
	if !ok {
		return "", fmt.Errorf("not a schema-wrapped value")
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case float64, bool:
		return fmt.Sprintf("%v", v), nil
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(bytes), nil
	}
}

func envelopeValue(m map[string]interface{}) (interface{}, bool) {
	if len(m) != 2 {
		return nil, false
	}
	if _, hasType := m["type"]; !hasType {
		return nil, false
	}
	value, hasValue := m["value"]
	return value, hasValue
}

// unwrapSchemaValues rewrites
//
//	{"name": {"type": "string", "value": "John"}}
//
// as
//
//	{"name": "John"}
func unwrapSchemaValues(jsonStr string) (string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}

	result, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}
	return string(result), nil
}

func recursiveUnwrap(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		if value, ok := envelopeValue(v); ok {
			return recursiveUnwrap(value)
		}
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			result[key] = recursiveUnwrap(val)
		}
		return result

	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = recursiveUnwrap(val)
		}
		return result

	default:
		return data
	}
}
