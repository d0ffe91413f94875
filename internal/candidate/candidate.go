// Package candidate orchestrates the end-to-end decision for one captured
// request pair: diff, classify, optionally unify variable names, build a
// swap template, and enumerate variable/location configurations to try.
package candidate

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/saiid2001/vsf-analyzer/internal/classifier"
	"github.com/saiid2001/vsf-analyzer/internal/constants"
	"github.com/saiid2001/vsf-analyzer/internal/differ"
	"github.com/saiid2001/vsf-analyzer/internal/patterns"
	"github.com/saiid2001/vsf-analyzer/internal/reqmodel"
	"github.com/saiid2001/vsf-analyzer/internal/swaprequest"
	"github.com/saiid2001/vsf-analyzer/internal/swaptemplate"
)

// ResultCode is the coded outcome persisted against a candidate's task row.
type ResultCode string

const (
	ResultNoVariables           ResultCode = "cpn"
	ResultInsufficientVariation ResultCode = "cpi"
	ResultValid                 ResultCode = "cpv"
	ResultErrored               ResultCode = "cpe"
)

// Input is everything the processor needs for one candidate pair.
type Input struct {
	CandidateID int64
	AccountIDA  string
	AccountIDB  string
	RequestA    reqmodel.RequestInstance
	RequestB    reqmodel.RequestInstance
	IdentityA   classifier.SessionIdentity
	IdentityB   classifier.SessionIdentity
}

// Config holds the tunables for one processor run: variable-name
// unification, the swap enumeration budget and its seed, and the
// location/name/value include-exclude filters.
type Config struct {
	UnifyVariableNames   bool
	MaxSwaps             int
	Seed                 int64
	SwapLocationsInclude map[string]bool
	SwapLocationsExclude map[string]bool
	SwapNameInclude      *patterns.List
	SwapNameExclude      *patterns.List
	SwapValueInclude     *patterns.List
	SwapValueExclude     *patterns.List
}

// VariableDecision is the full should-swap record for one (location, name)
// pair, kept for every variable the differ found, not just the swappable
// ones, so a reviewer can see why a variable was rejected.
type VariableDecision struct {
	Name     string
	Location differ.Location
	Value1   string
	Value2   string
	Decision classifier.Decision
}

// Configuration is one enumerated variable/location subset to try, of the
// shape {variable_name: {"where": [location, ...]}}.
type Configuration struct {
	Variables map[string]swaprequest.VariableConfig
}

// Result is the outcome of processing one candidate pair.
type Result struct {
	Code           ResultCode
	TryManual      bool
	AccountIDA     string
	AccountIDB     string
	Template       *swaptemplate.SwapRequestTemplate
	Request        *swaprequest.SwapRequest
	Configurations []Configuration
	Decisions      []VariableDecision
	Note           string
}

// Process runs the full candidate pipeline: preflight, diff, classify,
// optional unify, template build, and enumerate. It never returns an
// error; failures are encoded in Result.Code (cpn/cpi/cpv/cpe) instead.
func Process(input Input, rules *patterns.Rules, cfg Config) Result {
	base := Result{AccountIDA: input.AccountIDA, AccountIDB: input.AccountIDB}

	if !differ.ShouldProcess(input.RequestA, input.RequestB) {
		base.Code = ResultNoVariables
		base.Note = "preflight: identical url path and body, or path segment count mismatch"
		return base
	}

	diffResult, err := differ.Diff(input.RequestA, input.RequestB, rules)
	if errors.Is(err, differ.ErrOutOfScope) {
		base.Code = ResultNoVariables
		base.Note = "url path segment count mismatch"
		return base
	}
	if err != nil {
		base.Code = ResultErrored
		base.Note = err.Error()
		return base
	}
	base.TryManual = diffResult.TryManual

	identityKeywords := classifier.IdentityKeywords(input.IdentityA, input.IdentityB)

	flattened := map[string]string{}
	swappable := map[string][]differ.Location{}
	var decisions []VariableDecision

	for _, loc := range orderedLocations(diffResult.Variables) {
		for _, name := range sortedNames(diffResult.Variables[loc]) {
			cand := diffResult.Variables[loc][name]
			decision := classifier.ShouldSwap(name, cand.Value1, rules, identityKeywords)
			decisions = append(decisions, VariableDecision{
				Name: name, Location: loc, Value1: cand.Value1, Value2: cand.Value2, Decision: decision,
			})
			if _, seen := flattened[name]; !seen {
				flattened[name] = cand.Value1
			}
			if decision.Swap {
				swappable[name] = append(swappable[name], loc)
			}
		}
	}
	base.Decisions = decisions

	if len(swappable) == 0 {
		base.Code = ResultNoVariables
		return base
	}

	if cfg.UnifyVariableNames {
		flattened, swappable = unifyVariableNames(flattened, swappable)
	}

	sr := swaprequest.Build(input.RequestA, flattened)
	if err := sr.RegisterInstance(input.RequestB); err != nil {
		if errors.Is(err, swaptemplate.ErrMultipleValues) {
			base.Code = ResultNoVariables
			base.Note = "template registration found inconsistent variable values"
			return base
		}
		base.Code = ResultErrored
		base.Note = err.Error()
		return base
	}
	base.Template = sr.Template
	base.Request = sr

	maxSwaps := cfg.MaxSwaps
	if maxSwaps <= 0 {
		maxSwaps = constants.DefaultMaxSwaps
	}
	rng := rand.New(rand.NewSource(cfg.Seed + input.CandidateID))
	configs := enumerate(swappable, flattened, cfg, maxSwaps, rng)
	if len(configs) == 0 {
		base.Code = ResultInsufficientVariation
		return base
	}

	base.Code = ResultValid
	base.Configurations = configs
	return base
}

// unifyVariableNames collapses variables that share the same reference
// value onto one canonical name, merging their swappable locations. Name
// iteration is sorted to make the "last write wins" collision rule
// deterministic.
func unifyVariableNames(flattened map[string]string, swappable map[string][]differ.Location) (map[string]string, map[string][]differ.Location) {
	names := make([]string, 0, len(flattened))
	for n := range flattened {
		names = append(names, n)
	}
	sort.Strings(names)

	canonicalForValue := map[string]string{}
	for _, n := range names {
		canonicalForValue[flattened[n]] = n
	}

	newFlattened := map[string]string{}
	newSwappable := map[string][]differ.Location{}
	for _, n := range names {
		canonical := canonicalForValue[flattened[n]]
		newFlattened[canonical] = flattened[n]
		newSwappable[canonical] = append(newSwappable[canonical], swappable[n]...)
	}
	return newFlattened, newSwappable
}

func orderedLocations(m map[differ.Location]map[string]differ.Candidate) []differ.Location {
	locs := make([]differ.Location, 0, len(m))
	for l := range m {
		locs = append(locs, l)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })
	return locs
}

func sortedNames(m map[string]differ.Candidate) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
