package metrics

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Thresholds defines the limits for violations. A zero limit disables the
// rule.
type Thresholds struct {
	Cyclomatic     uint32 `json:"cyclomatic" koanf:"cyclomatic" toml:"cyclomatic"`
	Cognitive      uint32 `json:"cognitive" koanf:"cognitive" toml:"cognitive"`
	Nesting        int    `json:"nesting" koanf:"nesting" toml:"nesting"`
	Parameters     int    `json:"parameters" koanf:"parameters" toml:"parameters"`
	MembersPerType int    `json:"members_per_type" koanf:"members_per_type" toml:"members_per_type"`
}

// DefaultThresholds returns sensible defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Cyclomatic:     10,
		Cognitive:      15,
		Nesting:        4,
		Parameters:     6,
		MembersPerType: 30,
	}
}

// Severity indicates how far a value exceeds its threshold.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Violation represents a threshold violation.
type Violation struct {
	Severity  Severity `json:"severity"`
	Rule      string   `json:"rule"`
	Message   string   `json:"message"`
	Value     int      `json:"value"`
	Threshold int      `json:"threshold"`
	File      string   `json:"file"`
	Line      int      `json:"line"`
	Scope     string   `json:"scope"`
}

func check(value, limit int) (Severity, bool) {
	if limit <= 0 || value <= limit {
		return "", false
	}
	if value > limit*2 {
		return SeverityError, true
	}
	return SeverityWarning, true
}

// CheckFunction returns the violations of fm and records their rule names on
// it.
func (t Thresholds) CheckFunction(fm *FunctionMetrics) []Violation {
	rules := []struct {
		name  string
		value int
		limit int
	}{
		{"cyclomatic", int(fm.Cyclomatic), int(t.Cyclomatic)},
		{"cognitive", int(fm.Cognitive), int(t.Cognitive)},
		{"nesting", fm.MaxNesting, t.Nesting},
		{"parameters", fm.Parameters, t.Parameters},
	}

	var out []Violation
	for _, r := range rules {
		sev, ok := check(r.value, r.limit)
		if !ok {
			continue
		}
		fm.Violations = append(fm.Violations, r.name)
		out = append(out, Violation{
			Severity:  sev,
			Rule:      r.name,
			Message:   fmt.Sprintf("%s %s is %d (limit %d)", fm.Qualified, r.name, r.value, r.limit),
			Value:     r.value,
			Threshold: r.limit,
			File:      fm.File,
			Line:      fm.StartLine,
			Scope:     fm.Qualified,
		})
	}
	return out
}

// CheckType returns a violation when a type holds too many members and
// functions.
func (t Thresholds) CheckType(file string, tm TypeMetrics) []Violation {
	value := tm.Members + tm.Functions
	sev, ok := check(value, t.MembersPerType)
	if !ok {
		return nil
	}
	return []Violation{{
		Severity:  sev,
		Rule:      "members_per_type",
		Message:   fmt.Sprintf("%s has %d members (limit %d)", tm.Qualified, value, t.MembersPerType),
		Value:     value,
		Threshold: t.MembersPerType,
		File:      file,
		Line:      tm.Line,
		Scope:     tm.Qualified,
	}}
}

// Distribution summarises one metric over many functions.
type Distribution struct {
	Mean float64 `json:"mean"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P95  float64 `json:"p95"`
	Max  float64 `json:"max"`
}

// Summary aggregates function metrics.
type Summary struct {
	Functions  int          `json:"functions"`
	Cyclomatic Distribution `json:"cyclomatic"`
	Cognitive  Distribution `json:"cognitive"`
	Nesting    Distribution `json:"nesting"`
	LSLOC      Distribution `json:"lsloc"`
	Parameters Distribution `json:"parameters"`
}

// Summarize computes distributions over fns.
func Summarize(fns []FunctionMetrics) Summary {
	s := Summary{Functions: len(fns)}
	if len(fns) == 0 {
		return s
	}

	column := func(get func(FunctionMetrics) float64) Distribution {
		xs := make([]float64, len(fns))
		for i, fm := range fns {
			xs[i] = get(fm)
		}
		return distribution(xs)
	}

	s.Cyclomatic = column(func(fm FunctionMetrics) float64 { return float64(fm.Cyclomatic) })
	s.Cognitive = column(func(fm FunctionMetrics) float64 { return float64(fm.Cognitive) })
	s.Nesting = column(func(fm FunctionMetrics) float64 { return float64(fm.MaxNesting) })
	s.LSLOC = column(func(fm FunctionMetrics) float64 { return float64(fm.LSLOC) })
	s.Parameters = column(func(fm FunctionMetrics) float64 { return float64(fm.Parameters) })
	return s
}

func distribution(xs []float64) Distribution {
	slices.Sort(xs)
	return Distribution{
		Mean: stat.Mean(xs, nil),
		P50:  stat.Quantile(0.5, stat.Empirical, xs, nil),
		P90:  stat.Quantile(0.9, stat.Empirical, xs, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, xs, nil),
		Max:  xs[len(xs)-1],
	}
}
