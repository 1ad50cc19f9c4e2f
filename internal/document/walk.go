// Package document walks the paths of a JSON OpenAPI document in the order
// the keys appear in the document.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/GabrielRw/openapi-inspect/internal/types"
)

// MissingValue is printed in place of an absent parameter name or location.
const MissingValue = "<missing>"

// ErrNotObject is returned when a value that must be a JSON object is not.
var ErrNotObject = errors.New("not a JSON object")

// Walk returns the path items of body. On a shape error the items collected
// up to the failure point are returned together with the error.
func Walk(body []byte) ([]types.PathItem, error) {
	// jsonparser skips over malformed input it does not need to look at.
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	root, dataType, _, err := jsonparser.Get(raw)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if dataType != jsonparser.Object {
		return nil, fmt.Errorf("document root is %s: %w", typeName(dataType), ErrNotObject)
	}

	paths, dataType, found := lookup(root, "paths")
	if !found {
		return nil, nil
	}
	if dataType != jsonparser.Object {
		return nil, fmt.Errorf("paths is %s: %w", typeName(dataType), ErrNotObject)
	}

	pathEntries, err := entries(paths)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	var items []types.PathItem
	for _, e := range pathEntries {
		item := types.PathItem{Path: e.key}
		if e.dataType != jsonparser.Object {
			items = append(items, item)
			return items, fmt.Errorf("path %s is %s: %w", item.Path, typeName(e.dataType), ErrNotObject)
		}

		ops, err := walkOperations(item.Path, e.value)
		item.Operations = ops
		items = append(items, item)
		if err != nil {
			return items, err
		}
	}
	return items, nil
}

func walkOperations(path string, methods []byte) ([]types.Operation, error) {
	methodEntries, err := entries(methods)
	if err != nil {
		return nil, fmt.Errorf("read path %s: %w", path, err)
	}

	var ops []types.Operation
	for _, e := range methodEntries {
		op := types.Operation{Method: strings.ToUpper(e.key)}
		if e.dataType != jsonparser.Object {
			ops = append(ops, op)
			return ops, fmt.Errorf("operation %s %s is %s: %w", op.Method, path, typeName(e.dataType), ErrNotObject)
		}

		params, err := walkParameters(e.value)
		op.Parameters = params
		ops = append(ops, op)
		if err != nil {
			return ops, fmt.Errorf("operation %s %s: %w", op.Method, path, err)
		}
	}
	return ops, nil
}

// entry is one member of a JSON object.
type entry struct {
	key      string
	value    []byte
	dataType jsonparser.ValueType
}

// entries returns the members of obj in document order. A repeated key keeps
// the position of its first occurrence and the value of its last.
func entries(obj []byte) ([]entry, error) {
	var (
		list  []entry
		index = make(map[string]int)
	)
	err := jsonparser.ObjectEach(obj, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		e := entry{key: string(key), value: value, dataType: dataType}
		if at, ok := index[e.key]; ok {
			list[at] = e
			return nil
		}
		index[e.key] = len(list)
		list = append(list, e)
		return nil
	})
	return list, err
}

// lookup returns the last value of key in obj.
func lookup(obj []byte, key string) ([]byte, jsonparser.ValueType, bool) {
	list, err := entries(obj)
	if err != nil {
		return nil, jsonparser.NotExist, false
	}
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].key == key {
			return list[i].value, list[i].dataType, true
		}
	}
	return nil, jsonparser.NotExist, false
}

// walkParameters treats an absent or non-array parameters value as empty.
func walkParameters(operation []byte) ([]types.Parameter, error) {
	list, dataType, found := lookup(operation, "parameters")
	if !found || dataType != jsonparser.Array {
		return nil, nil
	}

	var (
		params  []types.Parameter
		walkErr error
	)
	_, err := jsonparser.ArrayEach(list, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if walkErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			walkErr = fmt.Errorf("parameter %d is %s: %w", len(params), typeName(dataType), ErrNotObject)
			return
		}
		params = append(params, types.Parameter{
			Name: field(value, "name"),
			In:   field(value, "in"),
		})
	})
	if walkErr != nil {
		return params, walkErr
	}
	if err != nil {
		return params, fmt.Errorf("read parameters: %w", err)
	}
	return params, nil
}

// field renders obj[key] for display. Strings are unescaped, other values
// keep their JSON text, and absent or null values become MissingValue.
func field(obj []byte, key string) string {
	value, dataType, found := lookup(obj, key)
	if !found {
		return MissingValue
	}

	switch dataType {
	case jsonparser.NotExist, jsonparser.Null:
		return MissingValue
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return string(value)
		}
		return s
	default:
		return string(value)
	}
}

func typeName(t jsonparser.ValueType) string {
	switch t {
	case jsonparser.Object:
		return "an object"
	case jsonparser.Array:
		return "an array"
	case jsonparser.String:
		return "a string"
	case jsonparser.Number:
		return "a number"
	case jsonparser.Boolean:
		return "a boolean"
	case jsonparser.Null:
		return "null"
	default:
		return "unknown"
	}
}
