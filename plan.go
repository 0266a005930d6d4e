package unit

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/unitlab/unit/types"
)

// PlanRule matches cases by suite and case name globs (path.Match syntax).
// An empty field matches everything, so {suite: billing} covers the whole
// billing suite.
type PlanRule struct {
	Suite string `yaml:"suite,omitempty"`
	Case  string `yaml:"case,omitempty"`
}

func (r PlanRule) matches(suite, caseName string) bool {
	return globMatch(r.Suite, suite) && globMatch(r.Case, caseName)
}

// Plan is a declarative selection of the cases a run executes. Exclude
// rules are applied first; when include rules exist a case must match at
// least one of them.
type Plan struct {
	Include []PlanRule `yaml:"include,omitempty"`
	Exclude []PlanRule `yaml:"exclude,omitempty"`
}

// LoadPlan loads a run plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid plan file %s: %w", path, err)
	}
	return &p, nil
}

func (p *Plan) validate() error {
	for _, rules := range [][]PlanRule{p.Include, p.Exclude} {
		for _, r := range rules {
			for _, pattern := range []string{r.Suite, r.Case} {
				if err := checkPattern(pattern); err != nil {
					return fmt.Errorf("pattern %q: %w", pattern, err)
				}
			}
		}
	}
	return nil
}

// Filter compiles the plan into the case filter the runner applies.
func (p *Plan) Filter() types.Filter {
	return func(suite, caseName string) bool {
		for _, r := range p.Exclude {
			if r.matches(suite, caseName) {
				return false
			}
		}
		if len(p.Include) == 0 {
			return true
		}
		for _, r := range p.Include {
			if r.matches(suite, caseName) {
				return true
			}
		}
		return false
	}
}

// SuiteFilter prunes suites the case filter could never select: suites an
// exclude rule covers wholesale, and, when include rules exist, suites no
// include rule names. Pruned suites do not run at all, so their setup code
// never executes.
func (p *Plan) SuiteFilter() func(string) bool {
	return func(suite string) bool {
		for _, r := range p.Exclude {
			if r.Case == "" && globMatch(r.Suite, suite) {
				return false
			}
		}
		if len(p.Include) == 0 {
			return true
		}
		for _, r := range p.Include {
			if globMatch(r.Suite, suite) {
				return true
			}
		}
		return false
	}
}

// globMatch applies a path.Match pattern, treating empty as match-all.
// Malformed patterns never match; LoadPlan and NewConfig reject them up
// front.
func globMatch(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// checkPattern reports whether a glob pattern is well formed.
func checkPattern(pattern string) error {
	_, err := path.Match(pattern, "")
	return err
}
