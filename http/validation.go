package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"bikebuyers/ml"
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RequestValidationError 请求体缺失字段或类型错误
type RequestValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *RequestValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// MarshalJSON 输出结构化错误体
func (e *RequestValidationError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error  string       `json:"error"`
		Fields []FieldError `json:"fields"`
	}{Error: "validation failed", Fields: e.Fields})
}

// customerPayload 只检查字段存在和JSON类型, 不检查取值范围
type customerPayload struct {
	Gender          *string `json:"gender" validate:"required"`
	Age             *int    `json:"age" validate:"required"`
	MaritalStatus   *string `json:"marital_status" validate:"required"`
	Children        *int    `json:"children" validate:"required"`
	Income          *int    `json:"income" validate:"required"`
	EducationLevel  *string `json:"education_level" validate:"required"`
	OccupationName  *string `json:"occupation_name" validate:"required"`
	RegionName      *string `json:"region_name" validate:"required"`
	CommuteDistance *string `json:"commute_distance" validate:"required"`
	HomeOwner       *string `json:"home_owner" validate:"required"`
	Cars            *int    `json:"cars" validate:"required"`
}

func (p *customerPayload) targets() map[string]interface{} {
	return map[string]interface{}{
		"gender":           &p.Gender,
		"age":              &p.Age,
		"marital_status":   &p.MaritalStatus,
		"children":         &p.Children,
		"income":           &p.Income,
		"education_level":  &p.EducationLevel,
		"occupation_name":  &p.OccupationName,
		"region_name":      &p.RegionName,
		"commute_distance": &p.CommuteDistance,
		"home_owner":       &p.HomeOwner,
		"cars":             &p.Cars,
	}
}

func (p *customerPayload) record() ml.CustomerRecord {
	return ml.CustomerRecord{
		Gender:          *p.Gender,
		Age:             *p.Age,
		MaritalStatus:   *p.MaritalStatus,
		Children:        *p.Children,
		Income:          *p.Income,
		EducationLevel:  *p.EducationLevel,
		OccupationName:  *p.OccupationName,
		RegionName:      *p.RegionName,
		CommuteDistance: *p.CommuteDistance,
		HomeOwner:       *p.HomeOwner,
		Cars:            *p.Cars,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeCustomerRecord 解析并校验预测请求体. 所有问题字段一次性返回,
// 按特征顺序排列
func DecodeCustomerRecord(body io.Reader) (ml.CustomerRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return ml.CustomerRecord{}, &RequestValidationError{Fields: []FieldError{{
			Field:   "body",
			Message: fmt.Sprintf("invalid JSON object: %v", err),
		}}}
	}

	payload := &customerPayload{}
	targets := payload.targets()
	reported := make(map[string]bool)
	var fields []FieldError

	for _, f := range ml.BikeBuyerSchema.Features {
		value, ok := raw[f.Name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, targets[f.Name]); err != nil {
			fields = append(fields, FieldError{Field: f.Name, Message: typeMessage(f.Kind)})
			reported[f.Name] = true
		}
	}

	if err := validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return ml.CustomerRecord{}, err
		}
		for _, fe := range verrs {
			if reported[fe.Field()] {
				continue
			}
			fields = append(fields, FieldError{Field: fe.Field(), Message: "field required"})
		}
	}

	if len(fields) > 0 {
		sort.SliceStable(fields, func(i, j int) bool {
			return ml.BikeBuyerSchema.Index(fields[i].Field) < ml.BikeBuyerSchema.Index(fields[j].Field)
		})
		return ml.CustomerRecord{}, &RequestValidationError{Fields: fields}
	}
	return payload.record(), nil
}

func typeMessage(kind ml.FeatureKind) string {
	if kind == ml.KindInteger {
		return "must be an integer"
	}
	return "must be a string"
}
