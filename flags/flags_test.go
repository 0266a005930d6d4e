package flags

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range Flags {
		name := flag.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestHasEnvVar(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
		})
	}
}

func TestEnvVarFormat(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, FlagNameToEnvVarName(flagName), envFlags[0])
		})
	}
}

func TestNoFlagIsRequired(t *testing.T) {
	for _, flag := range Flags {
		reqFlag, ok := flag.(cli.RequiredFlag)
		require.True(t, ok)
		require.False(t, reqFlag.IsRequired(), "%s: a binary with zero flags must run", flag.Names()[0])
	}
}

func TestCheckRequired(t *testing.T) {
	testCases := []struct {
		name        string
		args        []string
		shouldError bool
	}{
		{"no flags", []string{"app"}, false},
		{"filter alone", []string{"app", "--filter", "auth/*"}, false},
		{"plan alone", []string{"app", "--plan", "plan.yaml"}, false},
		{"plan with filter", []string{"app", "--plan", "plan.yaml", "--filter", "auth/*"}, true},
		{"plan with suite", []string{"app", "--plan", "plan.yaml", "--suite", "auth"}, true},
		{"filter with suite", []string{"app", "--filter", "auth/*", "--suite", "auth"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := &cli.App{
				Flags: Flags,
				Action: func(ctx *cli.Context) error {
					return CheckRequired(ctx)
				},
			}

			err := app.Run(tc.args)
			if tc.shouldError {
				assert.ErrorContains(t, err, "cannot be combined")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunIntervalParsing(t *testing.T) {
	app := &cli.App{
		Flags: Flags,
		Action: func(ctx *cli.Context) error {
			assert.Equal(t, 30*time.Minute, ctx.Duration(RunInterval.Name))
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"app", "--run-interval", "30m"}))
}

func TestFlagNameToEnvVarName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"filter", "UNIT_FILTER"},
		{"log.level", "UNIT_LOG_LEVEL"},
		{"report-dir", "UNIT_REPORT_DIR"},
		{"metrics.enabled", "UNIT_METRICS_ENABLED"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FlagNameToEnvVarName(tt.name))
	}
}
