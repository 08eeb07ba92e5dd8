package schema_test

import (
	"testing"

	"github.com/relabs-tech/sakamichi/core/schema"
)

const (
	ref1 = `{ "type" : "string" ,
		      "$id" : "http://some_host.com/string.json"}`
	ref2 = `{ "$id" : "http://some_host.com/maxlength.json",
	 		  "maxLength" : 5 }`

	topLevel1 = `
	{ "$id" : "http://some_host.com/top1.json",
	  "allOf" : [
		{ "$ref" : "http://some_host.com/string.json" },
		{ "$ref" : "http://some_host.com/maxlength.json" }
		]
	}`
)

func TestValidateString(t *testing.T) {
	v, err := schema.NewValidator([]string{topLevel1}, []string{ref1, ref2})
	if err != nil {
		t.Fatalf("No error expected when creating validator, got %v", err)
	}

	schemaID := "http://some_host.com/top1.json"
	if err := v.ValidateString(`"short"`, schemaID); err != nil {
		t.Fatalf("short string is expected to be valid, got %v", err)
	}
	if err := v.ValidateString(`"a very long string"`, schemaID); err == nil {
		t.Fatalf("long string is expected to be invalid")
	}
	if err := v.ValidateString(`"short"`, "http://some_host.com/unknown.json"); err == nil {
		t.Fatalf("unknown schema is expected to fail")
	}
}

func TestRequestSchemas(t *testing.T) {
	v, err := schema.NewRequestValidator()
	if err != nil {
		t.Fatalf("No error expected when creating request validator, got %v", err)
	}

	for _, id := range []string{schema.Document, schema.Trivia, schema.FunFact, schema.Social, schema.AdminSign, schema.AdminLogin} {
		if !v.HasSchema(id) {
			t.Fatalf("%s is expected to be available", id)
		}
	}

	tests := []struct {
		schemaID string
		body     string
		valid    bool
	}{
		{schema.Trivia, `{"fact":"first single to top the chart","number":1}`, true},
		{schema.Trivia, `{"fact":"first single","number":"1"}`, true},
		{schema.Trivia, `{"fact":"first single"}`, false},
		{schema.Trivia, `{"fact":"","number":1}`, false},
		{schema.FunFact, `{"funfact":"likes cats","variety":"hobby"}`, true},
		{schema.FunFact, `{"variety":"hobby"}`, false},
		{schema.Social, `{"instagram":"@nogi","blog":null}`, true},
		{schema.Social, `{"instagram":5}`, false},
		{schema.Document, `{"title":"Hello","releaseDate":"2024-01-01"}`, true},
		{schema.Document, `{"$id":"forged"}`, false},
		{schema.Document, `["not","an","object"]`, false},
		{schema.AdminSign, `{"email":"a@example.com","password":"password123","name":"A"}`, true},
		{schema.AdminSign, `{"email":"a@example.com","password":"password123"}`, false},
		{schema.AdminLogin, `{"email":"a@example.com","password":"password123"}`, true},
		{schema.AdminLogin, `{"email":"a@example.com"}`, false},
	}
	for _, tt := range tests {
		err := v.ValidateBytes([]byte(tt.body), tt.schemaID)
		if tt.valid && err != nil {
			t.Fatalf("%s is expected to be valid with schema %s. Reported error was: %v", tt.body, tt.schemaID, err)
		}
		if !tt.valid && err == nil {
			t.Fatalf("%s is expected to be invalid with schema %s", tt.body, tt.schemaID)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	v, err := schema.NewRequestValidator()
	if err != nil {
		t.Fatalf("No error expected when creating validator, got %v", err)
	}
	login := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{"a@example.com", "secret"}
	if err := v.ValidateStruct(login, schema.AdminLogin); err != nil {
		t.Fatalf("login struct is expected to be valid, got %v", err)
	}
}
