// Package ui 提供预测服务的表单前端
package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ConfigLoadError 表单配置缺失或格式错误, 启动时致命
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("load ui config %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// CategoricalFeature 下拉选择字段, Values保持文件中的顺序
type CategoricalFeature struct {
	Name   string
	Values []string
}

// Allows 判断取值是否在允许集合内
func (f CategoricalFeature) Allows(value string) bool {
	for _, v := range f.Values {
		if v == value {
			return true
		}
	}
	return false
}

// NumericFeature 整数滑块字段, 闭区间[Min, Max]
type NumericFeature struct {
	Name string
	Min  int
	Max  int
}

// Schema 表单配置, 加载后只读
type Schema struct {
	Categorical []CategoricalFeature
	Numeric     []NumericFeature
}

// Label 字段显示名: 下划线换空格, 首字母大写
func Label(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// LoadSchema 读取表单配置文件, 字段顺序与文件一致
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	schema, err := parseSchema(data)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	return schema, nil
}

func parseSchema(data []byte) (*Schema, error) {
	var doc struct {
		Categorical json.RawMessage `json:"categorical_features"`
		Numeric     json.RawMessage `json:"numeric_features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Categorical == nil || doc.Numeric == nil {
		return nil, errors.New("categorical_features and numeric_features are required")
	}

	catNames, err := objectKeys(doc.Categorical)
	if err != nil {
		return nil, fmt.Errorf("categorical_features: %w", err)
	}
	var catValues map[string][]string
	if err := json.Unmarshal(doc.Categorical, &catValues); err != nil {
		return nil, fmt.Errorf("categorical_features: %w", err)
	}

	numNames, err := objectKeys(doc.Numeric)
	if err != nil {
		return nil, fmt.Errorf("numeric_features: %w", err)
	}
	var numBounds map[string]struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	}
	if err := json.Unmarshal(doc.Numeric, &numBounds); err != nil {
		return nil, fmt.Errorf("numeric_features: %w", err)
	}

	schema := &Schema{}
	seen := make(map[string]bool)
	for _, name := range catNames {
		if seen[name] {
			return nil, fmt.Errorf("duplicate feature %q", name)
		}
		seen[name] = true

		values := catValues[name]
		if len(values) == 0 {
			return nil, fmt.Errorf("feature %q: values must be a non-empty list", name)
		}
		schema.Categorical = append(schema.Categorical, CategoricalFeature{Name: name, Values: values})
	}

	for _, name := range numNames {
		if seen[name] {
			return nil, fmt.Errorf("duplicate feature %q", name)
		}
		seen[name] = true

		bounds := numBounds[name]
		if bounds.Min == nil || bounds.Max == nil {
			return nil, fmt.Errorf("feature %q: min and max are required", name)
		}
		f := NumericFeature{Name: name}
		if f.Min, err = toInt(*bounds.Min); err != nil {
			return nil, fmt.Errorf("feature %q min: %w", name, err)
		}
		if f.Max, err = toInt(*bounds.Max); err != nil {
			return nil, fmt.Errorf("feature %q max: %w", name, err)
		}
		if f.Min > f.Max {
			return nil, fmt.Errorf("feature %q: min %d exceeds max %d", name, f.Min, f.Max)
		}
		schema.Numeric = append(schema.Numeric, f)
	}
	return schema, nil
}

// objectKeys 按出现顺序返回JSON对象的键, 重复键报错
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("must be an object")
	}

	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string) // 对象内的键一定是字符串
		if seen[key] {
			return nil, fmt.Errorf("duplicate feature %q", key)
		}
		seen[key] = true
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func toInt(v float64) (int, error) {
	if math.IsNaN(v) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%v is not an integer", v)
	}
	return int(v), nil
}
