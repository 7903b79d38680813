package definition_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/model"
)

const hubsYAML = `
id: hubs
title: New hub
endpoint: /api/hubs
steps:
  - id: hub
    fields:
      - name: name
        uiType: text
        required: true
        uiBreakpoints: {xs: 12, md: 6}
      - name: region
        uiType: select
        options:
          - {label: Rift Valley, value: rift}
    schema:
      type: object
      properties:
        name: {type: string, minLength: 3}
`

const depositsJSON = `{
  "id": "deposits",
  "title": "Deposit",
  "endpoint": "/api/deposits",
  "method": "patch",
  "steps": [
    {"id": "farmer", "fields": [{"name": "farmer", "uiType": "select", "searchUrl": "/farmers"}]},
    {"label": "Grain", "fields": [{"name": "bags", "uiType": "number", "dataType": "integer", "initialValue": 0}]}
  ]
}`

func TestParse_YAML(t *testing.T) {
	def, err := definition.Parse("hubs.yaml", []byte(hubsYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.ID != "hubs" || def.Endpoint != "/api/hubs" || def.SubmitMethod() != "POST" {
		t.Fatalf("unexpected definition header: %+v", def)
	}
	step := def.Steps[0]
	if step.Label != "Hub" {
		t.Fatalf("expected derived step label, got %q", step.Label)
	}
	if diff := cmp.Diff(model.Breakpoints{XS: 12, MD: 6}, step.Fields[0].Breakpoints); diff != "" {
		t.Fatalf("breakpoints mismatch (-want +got):\n%s", diff)
	}
	if step.SchemaYAML != nil {
		t.Fatalf("expected yaml schema to be converted")
	}
	if !strings.Contains(string(step.Schema), `"minLength":3`) {
		t.Fatalf("expected schema to be converted to JSON, got %s", step.Schema)
	}
}

func TestParse_JSON(t *testing.T) {
	def, err := definition.Parse("deposits.json", []byte(depositsJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.SubmitMethod() != "PATCH" {
		t.Fatalf("expected method to be normalised, got %q", def.Method)
	}
	gotIDs := []string{def.Steps[0].ID, def.Steps[1].ID}
	if diff := cmp.Diff([]string{"farmer", "step-2"}, gotIDs); diff != "" {
		t.Fatalf("step ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"farmer": 0, "bags": 1}, def.Owners()); diff != "" {
		t.Fatalf("owners mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		name string
		doc  string
	}{
		"empty":          {name: "a.yaml", doc: "  \n"},
		"invalid":        {name: "a.json", doc: "{"},
		"no steps":       {name: "a.yaml", doc: "id: a\n"},
		"missing id":     {name: "a.yaml", doc: "steps:\n  - id: s\n    fields: [{name: x}]\n"},
		"shared field":   {name: "a.yaml", doc: "id: a\nsteps:\n  - id: s1\n    fields: [{name: x}]\n  - id: s2\n    fields: [{name: x}]\n"},
		"unknown type":   {name: "a.yaml", doc: "id: a\nsteps:\n  - id: s\n    fields: [{name: x, dataType: money}]\n"},
		"unknown widget": {name: "a.yaml", doc: "id: a\nsteps:\n  - id: s\n    fields: [{name: x, uiType: slider}]\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := definition.Parse(tc.name, []byte(tc.doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"hubs.yaml":           {Data: []byte(hubsYAML)},
		"nested/deposit.json": {Data: []byte(depositsJSON)},
		"README.md":           {Data: []byte("ignored")},
	}
	store, err := definition.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var ids []string
	for _, def := range store.List() {
		ids = append(ids, def.ID)
	}
	if diff := cmp.Diff([]string{"deposits", "hubs"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if _, ok := store.Get("hubs"); !ok {
		t.Fatalf("expected hubs definition")
	}
	if _, ok := store.Get("missing"); ok {
		t.Fatalf("unexpected definition")
	}
}

func TestLoadFS_DuplicateID(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte(hubsYAML)},
		"b.yaml": {Data: []byte(hubsYAML)},
	}
	_, err := definition.LoadFS(fsys)
	if err == nil || !strings.Contains(err.Error(), `duplicate id "hubs"`) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestLoadFS_EmptyFile(t *testing.T) {
	_, err := definition.LoadFS(fstest.MapFS{"empty.json": {Data: nil}})
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}

func TestLoadFS_Nil(t *testing.T) {
	store, err := definition.LoadFS(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !store.Empty() {
		t.Fatalf("expected empty store")
	}
}

const loansOpenAPI = `
openapi: 3.0.3
info: {title: Loans, version: "1.0"}
paths:
  /loans:
    post:
      operationId: createLoan
      summary: New loan
      x-formflow-steps:
        - {id: borrower, label: Borrower}
        - {id: terms, label: Loan terms}
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [investor, amount]
              properties:
                id:
                  type: string
                  readOnly: true
                investor:
                  type: string
                  x-formflow-step: borrower
                  x-formflow-order: 1
                  x-formflow-search-url: /investors/search
                email:
                  type: string
                  format: email
                  x-formflow-step: borrower
                  x-formflow-order: 2
                amount:
                  type: number
                  minimum: 1000
                  x-formflow-step: terms
                  x-formflow-breakpoints: {xs: 12, md: 4}
                currency:
                  type: string
                  enum: [KES, USD]
                  default: KES
                  x-formflow-step: terms
                disbursed:
                  type: boolean
                notes:
                  type: string
                  maxLength: 2000
                  x-formflow-step: terms
                collateral:
                  type: object
                  x-formflow-step: terms
                  properties:
                    bags: {type: integer, minimum: 1}
      responses:
        "201": {description: created}
`

func TestFromOpenAPI_Steps(t *testing.T) {
	def, err := definition.FromOpenAPI(context.Background(), []byte(loansOpenAPI), "createLoan", definition.StepExtension)
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	if def.Title != "New loan" || def.Endpoint != "/loans" || def.SubmitMethod() != "POST" {
		t.Fatalf("unexpected header: %+v", def)
	}

	layout := map[string][]string{}
	for _, step := range def.Steps {
		layout[step.Label] = step.Fields.Names()
	}
	want := map[string][]string{
		"Borrower":   {"investor", "email", "disbursed"},
		"Loan terms": {"amount", "collateral", "currency", "notes"},
	}
	if diff := cmp.Diff(want, layout); diff != "" {
		t.Fatalf("step layout mismatch (-want +got):\n%s", diff)
	}

	fields := def.AllFields()
	byName := map[string]model.Field{}
	for _, field := range fields {
		byName[field.Name] = field
	}

	investor := byName["investor"]
	if !investor.Required || investor.SearchURL != "/investors/search" {
		t.Fatalf("unexpected investor field: %+v", investor)
	}
	if byName["email"].UIType != model.UITypeEmail {
		t.Fatalf("expected email widget, got %q", byName["email"].UIType)
	}
	amount := byName["amount"]
	if amount.DataType != model.DataTypeNumber || amount.Breakpoints.MD != 4 {
		t.Fatalf("unexpected amount field: %+v", amount)
	}
	if diff := cmp.Diff([]model.ValidationRule{{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "1000"}}}, amount.Validations); diff != "" {
		t.Fatalf("amount rules mismatch (-want +got):\n%s", diff)
	}
	currency := byName["currency"]
	if currency.UIType != model.UITypeSelect || currency.InitialValue != "KES" {
		t.Fatalf("unexpected currency field: %+v", currency)
	}
	if diff := cmp.Diff([]model.Option{{Label: "KES", Value: "KES"}, {Label: "USD", Value: "USD"}}, currency.Options); diff != "" {
		t.Fatalf("currency options mismatch (-want +got):\n%s", diff)
	}
	if byName["disbursed"].UIType != model.UITypeSwitch {
		t.Fatalf("expected switch for boolean")
	}
	if byName["notes"].UIType != model.UITypeTextarea {
		t.Fatalf("expected textarea for long strings")
	}
	collateral := byName["collateral"]
	if collateral.UIType != model.UITypeGroup || len(collateral.Nested) != 1 || collateral.Nested[0].DataType != model.DataTypeInteger {
		t.Fatalf("unexpected collateral group: %+v", collateral)
	}
	if _, ok := byName["id"]; ok {
		t.Fatalf("read-only properties must be skipped")
	}
}

func TestFromOpenAPI_SingleStep(t *testing.T) {
	def, err := definition.FromOpenAPI(context.Background(), []byte(loansOpenAPI), "createLoan", "")
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	if len(def.Steps) != 2 {
		t.Fatalf("declared steps are kept, got %d", len(def.Steps))
	}
	if got := len(def.Steps[0].Fields); got != 7 {
		t.Fatalf("expected every field on the first step, got %d", got)
	}
}

func TestFromOpenAPI_UnknownOperation(t *testing.T) {
	_, err := definition.FromOpenAPI(context.Background(), []byte(loansOpenAPI), "deleteLoan", "")
	if !errors.Is(err, definition.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}

func TestStore_Add(t *testing.T) {
	store := definition.NewStore()
	def := model.Definition{ID: "a", Steps: []model.Step{{ID: "s", Fields: model.Fields{{Name: "x"}}}}}
	if err := store.Add(def); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(def); err == nil {
		t.Fatalf("expected duplicate error")
	}
}
