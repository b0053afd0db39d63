package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/schema"
)

// schemaFile is the YAML form of a table schema:
//
//	columns:
//	  - name: id
//	    type: int32
//	  - name: vector
//	    type: vector
//	    dim: 128
//	    nullable: true
type schemaFile struct {
	Columns []struct {
		Name     string `yaml:"name"`
		Type     string `yaml:"type"`
		Dim      int    `yaml:"dim"`
		Nullable bool   `yaml:"nullable"`
	} `yaml:"columns"`
}

func parseSchema(data []byte) (*schema.Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	cols := make([]schema.Column, 0, len(f.Columns))
	for _, c := range f.Columns {
		var typ schema.DataType
		switch strings.ToLower(c.Type) {
		case "int32", "int":
			typ = schema.Int32()
		case "utf8", "string":
			typ = schema.Utf8()
		case "vector":
			typ = schema.Vector(c.Dim)
		default:
			return nil, fmt.Errorf("column %q: unknown type %q", c.Name, c.Type)
		}
		cols = append(cols, schema.Column{Name: c.Name, Type: typ, Nullable: c.Nullable})
	}
	return schema.Define(cols...)
}

func readSchemaFile(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSchema(data)
}

// parseRows decodes a YAML (or JSON) list of objects into one batch of s.
// Missing fields are null.
func parseRows(data []byte, s *schema.Schema) (*batch.Batch, error) {
	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse rows: %w", err)
	}

	b := batch.NewBuilder(s)
	values := make([]any, s.NumColumns())
	for i, row := range rows {
		for name := range row {
			if _, ok := s.Lookup(name); !ok {
				return nil, fmt.Errorf("row %d: unknown column %q", i, name)
			}
		}
		for j := range values {
			c := s.Column(j)
			v, err := convertValue(row[c.Name], c.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i, c.Name, err)
			}
			values[j] = v
		}
		if err := b.Append(values...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.Build()
}

func readRowsFile(path string, s *schema.Schema) (batch.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := parseRows(data, s)
	if err != nil {
		return nil, err
	}
	return batch.Of(b), nil
}

func convertValue(v any, typ schema.DataType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch typ.ID {
	case schema.TypeInt32:
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", v)
		}
		return n, nil
	case schema.TypeUtf8:
		switch x := v.(type) {
		case string:
			return x, nil
		case int, float64, bool:
			return fmt.Sprint(x), nil
		}
		return nil, fmt.Errorf("expected string, got %T", v)
	case schema.TypeVector:
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list, got %T", v)
		}
		vec := make([]float32, len(list))
		for i, e := range list {
			f, err := toFloat(e)
			if err != nil {
				return nil, err
			}
			vec[i] = f
		}
		return vec, nil
	}
	return nil, fmt.Errorf("unsupported type %s", typ)
}

func toFloat(v any) (float32, error) {
	switch x := v.(type) {
	case int:
		return float32(x), nil
	case float64:
		return float32(x), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

// parseVector parses "1, 2.5, -3" into a vector.
func parseVector(s string) ([]float32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty vector")
	}
	vec := make([]float32, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("vector element %d: %w", i, err)
		}
		vec[i] = float32(x)
	}
	return vec, nil
}
