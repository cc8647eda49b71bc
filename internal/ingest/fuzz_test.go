package ingest

import (
	"testing"

	"github.com/agentic-research/tmplcheck/internal/diag"
	"github.com/agentic-research/tmplcheck/internal/sema"
)

func FuzzDecodeAndCheck(f *testing.F) {
	f.Add(sampleModule)
	f.Add(`{"name": "M", "definitions": []}`)
	f.Add(`{"name": "M", "definitions": [{"name": "t", "kind": "template", "type": "integer",
		"template": {"kind": "specific", "value": {"kind": "id", "text": "t"}}}]}`)

	f.Fuzz(func(t *testing.T, data string) {
		u, err := Decode("fuzz.json", []byte(data), Options{})
		if err != nil {
			return
		}
		col := diag.NewCollector(false, false)
		sema.NewChecker(u.Module, nil, col, sema.Config{}).CheckModule()
		for _, d := range col.Diagnostics() {
			if d.Category == diag.CategoryInternal {
				t.Fatalf("internal error on %q: %s", data, d.Message)
			}
		}
	})
}
