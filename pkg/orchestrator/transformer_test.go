package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
)

const depositPreset = `
title: Record a deposit
submitLabel: Save deposit
metadata:
  layout.density: compact
steps:
  grain: Grain delivered
fields:
  farmerName:
    label: Depositor
    placeholder: As on the national ID
    metadata:
      labelKey: deposit.farmer
  bags:
    helpText: 90 kg bags
    required: false
`

func TestPresetTransformer_AppliesPatches(t *testing.T) {
	transformer, err := NewPresetTransformerFromFS(fstest.MapFS{
		"presets/deposit.yaml": &fstest.MapFile{Data: []byte(depositPreset)},
	}, "presets/deposit.yaml")
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}

	def := mustDefinition(t)
	prepared, err := New(WithTransformer(transformer)).Prepare(context.Background(), Request{Definition: &def})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	farmer := prepared.Steps[0].Fields[0]
	bags := prepared.Steps[1].Fields[0]
	got := []string{
		prepared.Title,
		prepared.SubmitLabel,
		prepared.Metadata["layout.density"],
		prepared.Steps[1].Label,
		farmer.Label,
		farmer.Placeholder,
		farmer.Metadata["labelKey"],
		bags.HelpText,
	}
	want := []string{
		"Record a deposit",
		"Save deposit",
		"compact",
		"Grain delivered",
		"Depositor",
		"As on the national ID",
		"deposit.farmer",
		"90 kg bags",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("patched definition mismatch (-want +got):\n%s", diff)
	}
	if bags.Required {
		t.Fatalf("expected bags to become optional")
	}
}

func TestPresetTransformer_JSONDocument(t *testing.T) {
	transformer, err := NewPresetTransformer([]byte(`{"fields": {"farmerName": {"rename": "depositor"}}}`))
	if err != nil {
		t.Fatalf("parse preset: %v", err)
	}

	def := mustDefinition(t)
	if err := transformer.Transform(context.Background(), &def); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if diff := cmp.Diff([]string{"depositor", "hub"}, def.Steps[0].Fields.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestPresetTransformer_Errors(t *testing.T) {
	if _, err := NewPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected empty document error")
	}
	if _, err := NewPresetTransformerFromFS(nil, "x.yaml"); err == nil {
		t.Fatalf("expected nil filesystem error")
	}
	if _, err := NewPresetTransformerFromFS(fstest.MapFS{}, "missing.yaml"); err == nil {
		t.Fatalf("expected missing file error")
	}

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "unknown field", doc: "fields:\n  moisture: {label: Moisture}\n", want: `field "moisture" not found`},
		{name: "unknown step", doc: "steps:\n  quality: Quality\n", want: `step "quality" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transformer, err := NewPresetTransformer([]byte(tt.doc))
			if err != nil {
				t.Fatalf("parse preset: %v", err)
			}
			def := mustDefinition(t)
			err = transformer.Transform(context.Background(), &def)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestChain_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls []string

	chain := Chain(
		TransformerFunc(func(context.Context, *model.Definition) error {
			calls = append(calls, "first")
			return boom
		}),
		nil,
		TransformerFunc(func(context.Context, *model.Definition) error {
			calls = append(calls, "second")
			return nil
		}),
	)

	def := mustDefinition(t)
	if err := chain.Transform(context.Background(), &def); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if diff := cmp.Diff([]string{"first"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}
