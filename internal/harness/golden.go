package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGoldenTrace compares a trace's text rendering against the golden
// file testdata/<name>.golden. Run tests with -update to regenerate.
func AssertGoldenTrace(t *testing.T, name string, events []TraceEvent) {
	t.Helper()
	g := goldie.New(t)
	g.Assert(t, name, []byte(RenderTrace(events)))
}
