package http

import (
	"errors"
	"strings"
	"testing"

	"bikebuyers/ml"
)

func TestDecodeCustomerRecord(t *testing.T) {
	record, err := DecodeCustomerRecord(strings.NewReader(scenarioBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ml.CustomerRecord{
		Gender: "Male", Age: 35, MaritalStatus: "Married", Children: 2, Income: 60000,
		EducationLevel: "Bachelors", OccupationName: "Professional", RegionName: "North America",
		CommuteDistance: "5-10 Miles", HomeOwner: "Yes", Cars: 1,
	}
	if record != want {
		t.Fatalf("expected %+v, got %+v", want, record)
	}
}

func TestDecodeCustomerRecordAcceptsZeroAndUnknownValues(t *testing.T) {
	// presence and type only: zeros, negative counts and unseen categories pass
	body := strings.NewReader(`{"gender":"Other","age":0,"marital_status":"","children":-1,"income":0,
		"education_level":"PhD","occupation_name":"Astronaut","region_name":"Mars",
		"commute_distance":"far","home_owner":"Maybe","cars":0,"extra":"ignored"}`)
	record, err := DecodeCustomerRecord(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Children != -1 || record.RegionName != "Mars" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestDecodeCustomerRecordReportsAllFields(t *testing.T) {
	body := strings.NewReader(`{"cars":"two","gender":7,"age":35.5}`)
	_, err := DecodeCustomerRecord(body)

	var verr *RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected RequestValidationError, got %v", err)
	}
	if len(verr.Fields) != len(ml.BikeBuyerSchema.Features) {
		t.Fatalf("expected %d field errors, got %d: %v", len(ml.BikeBuyerSchema.Features), len(verr.Fields), verr.Fields)
	}
	for i, name := range ml.BikeBuyerSchema.Names() {
		if verr.Fields[i].Field != name {
			t.Fatalf("field %d: expected %s, got %s", i, name, verr.Fields[i].Field)
		}
	}
	messages := map[string]string{}
	for _, f := range verr.Fields {
		messages[f.Field] = f.Message
	}
	if messages["gender"] != "must be a string" {
		t.Errorf("gender: %q", messages["gender"])
	}
	if messages["age"] != "must be an integer" || messages["cars"] != "must be an integer" {
		t.Errorf("age/cars: %q %q", messages["age"], messages["cars"])
	}
	if messages["income"] != "field required" {
		t.Errorf("income: %q", messages["income"])
	}
}

func TestPayloadTargetsCoverSchema(t *testing.T) {
	targets := (&customerPayload{}).targets()
	if len(targets) != len(ml.BikeBuyerSchema.Features) {
		t.Fatalf("expected %d targets, got %d", len(ml.BikeBuyerSchema.Features), len(targets))
	}
	for _, name := range ml.BikeBuyerSchema.Names() {
		if _, ok := targets[name]; !ok {
			t.Fatalf("no decode target for %s", name)
		}
	}
}
