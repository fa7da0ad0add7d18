package ml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CustomerRecord is the eleven-attribute input of one prediction.
type CustomerRecord struct {
	Gender          string `json:"gender"`
	Age             int    `json:"age"`
	MaritalStatus   string `json:"marital_status"`
	Children        int    `json:"children"`
	Income          int    `json:"income"`
	EducationLevel  string `json:"education_level"`
	OccupationName  string `json:"occupation_name"`
	RegionName      string `json:"region_name"`
	CommuteDistance string `json:"commute_distance"`
	HomeOwner       string `json:"home_owner"`
	Cars            int    `json:"cars"`
}

// Values returns the record keyed by column name.
func (r CustomerRecord) Values() map[string]interface{} {
	return map[string]interface{}{
		"gender":           r.Gender,
		"age":              r.Age,
		"marital_status":   r.MaritalStatus,
		"children":         r.Children,
		"income":           r.Income,
		"education_level":  r.EducationLevel,
		"occupation_name":  r.OccupationName,
		"region_name":      r.RegionName,
		"commute_distance": r.CommuteDistance,
		"home_owner":       r.HomeOwner,
		"cars":             r.Cars,
	}
}

// PredictionResult is the response of one prediction. Probability is the
// class-1 probability; Prediction is the model's own decision.
type PredictionResult struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
}

// Row is a single-row frame laid out in schema column order. Categorical
// cells hold strings, integer cells hold float64.
type Row struct {
	columns []string
	cells   []interface{}
}

// NewRow lays record out according to schema.
func NewRow(schema FeatureSchema, record CustomerRecord) (Row, error) {
	values := record.Values()
	row := Row{
		columns: schema.Names(),
		cells:   make([]interface{}, len(schema.Features)),
	}
	for i, f := range schema.Features {
		v, ok := values[f.Name]
		if !ok {
			return Row{}, fmt.Errorf("record has no column %q", f.Name)
		}
		switch f.Kind {
		case KindCategorical:
			s, ok := v.(string)
			if !ok {
				return Row{}, fmt.Errorf("column %q: expected string, got %T", f.Name, v)
			}
			row.cells[i] = s
		case KindInteger:
			n, ok := v.(int)
			if !ok {
				return Row{}, fmt.Errorf("column %q: expected integer, got %T", f.Name, v)
			}
			row.cells[i] = float64(n)
		default:
			return Row{}, fmt.Errorf("column %q: unknown kind %q", f.Name, f.Kind)
		}
	}
	return row, nil
}

func (r Row) Len() int { return len(r.cells) }

func (r Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Category returns the categorical cell at i.
func (r Row) Category(i int) (string, error) {
	if i < 0 || i >= len(r.cells) {
		return "", errors.New("column index out of range")
	}
	s, ok := r.cells[i].(string)
	if !ok {
		return "", fmt.Errorf("column %q is not categorical", r.columns[i])
	}
	return s, nil
}

// Number returns the numeric cell at i.
func (r Row) Number(i int) (float64, error) {
	if i < 0 || i >= len(r.cells) {
		return 0, errors.New("column index out of range")
	}
	f, ok := r.cells[i].(float64)
	if !ok {
		return 0, fmt.Errorf("column %q is not numeric", r.columns[i])
	}
	return f, nil
}

// Key is a canonical encoding of the row, equal for equal rows.
func (r Row) Key() string {
	var b strings.Builder
	for i, c := range r.cells {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(r.columns[i])
		b.WriteByte('=')
		switch v := c.(type) {
		case string:
			b.WriteString(strconv.Quote(v))
		case float64:
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return b.String()
}
