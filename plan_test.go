package unit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlanFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPlan(t *testing.T) {
	path := writePlanFile(t, `
include:
  - suite: billing
  - suite: auth
    case: login*
exclude:
  - suite: billing
    case: refund
`)

	p, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, p.Include, 2)
	require.Len(t, p.Exclude, 1)
	assert.Equal(t, "billing", p.Include[0].Suite)
	assert.Equal(t, "login*", p.Include[1].Case)
}

func TestLoadPlanErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    filepath.Join(t.TempDir(), "nope.yaml"),
			wantErr: "reading plan file",
		},
		{
			name:    "malformed yaml",
			path:    writePlanFile(t, "include: {{"),
			wantErr: "parsing plan file",
		},
		{
			name:    "malformed pattern",
			path:    writePlanFile(t, "include:\n  - suite: \"[a-\"\n"),
			wantErr: "invalid plan file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPlan(tt.path)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPlanFilter(t *testing.T) {
	plan := &Plan{
		Include: []PlanRule{
			{Suite: "billing"},
			{Suite: "auth", Case: "login*"},
		},
		Exclude: []PlanRule{
			{Suite: "billing", Case: "refund"},
		},
	}
	filter := plan.Filter()

	tests := []struct {
		name     string
		suite    string
		caseName string
		want     bool
	}{
		{"included suite", "billing", "charge", true},
		{"exclude beats include", "billing", "refund", false},
		{"included case glob", "auth", "login_expired", true},
		{"case outside include glob", "auth", "logout", false},
		{"suite not included", "storage", "write", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter(tt.suite, tt.caseName))
		})
	}
}

func TestPlanFilterExcludeOnly(t *testing.T) {
	plan := &Plan{
		Exclude: []PlanRule{{Suite: "fl*ky"}},
	}
	filter := plan.Filter()

	// Without include rules everything not excluded runs
	assert.True(t, filter("auth", "login"))
	assert.False(t, filter("flaky", "anything"))
}

func TestPlanSuiteFilter(t *testing.T) {
	plan := &Plan{
		Include: []PlanRule{
			{Suite: "billing"},
			{Suite: "auth", Case: "login"},
		},
		Exclude: []PlanRule{
			{Suite: "billing", Case: "refund"}, // case-scoped: suite still runs
			{Suite: "legacy*"},                 // wholesale: suite pruned
		},
	}
	sf := plan.SuiteFilter()

	assert.True(t, sf("billing"), "case-scoped exclude does not prune the suite")
	assert.True(t, sf("auth"))
	assert.False(t, sf("legacy_v1"), "wholesale exclude prunes the suite")
	assert.False(t, sf("storage"), "suites no include rule names are pruned")
}

func TestPlanSuiteFilterWithoutIncludes(t *testing.T) {
	plan := &Plan{}
	sf := plan.SuiteFilter()

	assert.True(t, sf("anything"))
}
