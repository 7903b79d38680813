package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.CSRFToken("_csrf", "token123"),
		render.Hidden(" version ", 4),
		render.Hidden("  ", "skip"),
	)

	wantMerged := map[string]string{
		"existing": "keep",
		"_csrf":    "token123",
		"version":  "4",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	sorted := render.SortedHiddenFields(merged)
	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "existing", Value: "keep"},
		{Name: "version", Value: "4"},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFormMethod(t *testing.T) {
	cases := []struct {
		in         string
		wantMethod string
		wantHidden *render.HiddenField
	}{
		{in: "", wantMethod: "POST"},
		{in: "post", wantMethod: "POST"},
		{in: "GET", wantMethod: "GET"},
		{in: "patch", wantMethod: "POST", wantHidden: &render.HiddenField{Name: "_method", Value: "PATCH"}},
		{in: " PUT ", wantMethod: "POST", wantHidden: &render.HiddenField{Name: "_method", Value: "PUT"}},
	}
	for _, tc := range cases {
		method, hidden := render.FormMethod(tc.in)
		if method != tc.wantMethod {
			t.Errorf("FormMethod(%q) method = %q, want %q", tc.in, method, tc.wantMethod)
		}
		if diff := cmp.Diff(tc.wantHidden, hidden); diff != "" {
			t.Errorf("FormMethod(%q) hidden mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}
