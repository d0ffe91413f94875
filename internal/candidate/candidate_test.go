package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiid2001/vsf-analyzer/internal/patterns"
	"github.com/saiid2001/vsf-analyzer/internal/reqmodel"
)

func emptyRules(t *testing.T) *patterns.Rules {
	t.Helper()
	rules, err := patterns.LoadRules("", "", "", "", "", "")
	require.NoError(t, err)
	return rules
}

func swapAllRules(t *testing.T) *patterns.Rules {
	t.Helper()
	swapAll, err := patterns.FromStrings([]string{".*"})
	require.NoError(t, err)
	rules := emptyRules(t)
	rules.VariableNameSwap = swapAll
	return rules
}

func TestProcess_IdenticalPairIsNoVariables(t *testing.T) {
	req := reqmodel.RequestInstance{
		URLPath: "/accounts/1",
		Body:    reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	result := Process(Input{CandidateID: 1, RequestA: req, RequestB: req}, emptyRules(t), Config{})
	assert.Equal(t, ResultNoVariables, result.Code)
}

func TestProcess_OutOfScopeIsNoVariables(t *testing.T) {
	a := reqmodel.RequestInstance{URLPath: "/a/b", Body: reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone}}
	b := reqmodel.RequestInstance{URLPath: "/a/b/c", Body: reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone}}
	result := Process(Input{CandidateID: 1, RequestA: a, RequestB: b}, emptyRules(t), Config{})
	assert.Equal(t, ResultNoVariables, result.Code)
}

func TestProcess_NoSwappableVariablesIsNoVariables(t *testing.T) {
	a := reqmodel.RequestInstance{URLPath: "/accounts/aaa111", Body: reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone}}
	b := reqmodel.RequestInstance{URLPath: "/accounts/bbb222", Body: reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone}}
	// No swap rules match any name, and nothing looks like an identity
	// keyword, so every candidate variable is classified unswappable.
	result := Process(Input{CandidateID: 1, RequestA: a, RequestB: b}, emptyRules(t), Config{})
	assert.Equal(t, ResultNoVariables, result.Code)
	assert.NotEmpty(t, result.Decisions)
}

func TestProcess_ValidCandidateProducesTemplateAndConfigurations(t *testing.T) {
	a := reqmodel.RequestInstance{
		InstanceID: "instance-a",
		URLPath:    "/accounts/aaa111/profile",
		Query:      map[string]any{"account_id": "aaa111"},
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	b := reqmodel.RequestInstance{
		InstanceID: "instance-b",
		URLPath:    "/accounts/bbb222/profile",
		Query:      map[string]any{"account_id": "bbb222"},
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}

	result := Process(Input{CandidateID: 42, RequestA: a, RequestB: b}, swapAllRules(t), Config{MaxSwaps: 4, Seed: 7})
	require.Equal(t, ResultValid, result.Code)
	require.NotNil(t, result.Template)
	require.NotEmpty(t, result.Configurations)

	// Configuration #0 always swaps every swappable variable at every
	// swappable location.
	all := result.Configurations[0]
	assert.NotEmpty(t, all.Variables)
}

func TestProcess_InconsistentRegistrationIsNoVariables(t *testing.T) {
	a := reqmodel.RequestInstance{
		InstanceID: "instance-a",
		URLPath:    "/x/shared-value",
		Query:      map[string]any{"other": "shared-value"},
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	b := reqmodel.RequestInstance{
		InstanceID: "instance-b",
		URLPath:    "/x/one",
		Query:      map[string]any{"other": "two"},
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	result := Process(Input{CandidateID: 1, RequestA: a, RequestB: b}, swapAllRules(t), Config{})
	assert.Equal(t, ResultNoVariables, result.Code)
}

func TestProcess_HeaderSwapAppliesThroughEvaluate(t *testing.T) {
	a := reqmodel.RequestInstance{
		InstanceID: "instance-a",
		URLPath:    "/accounts/1/profile",
		Headers:    map[string]string{"X-Account-Id": "aaa111"},
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	b := reqmodel.RequestInstance{
		InstanceID: "instance-b",
		URLPath:    "/accounts/2/profile",
		Headers:    map[string]string{"X-Account-Id": "bbb222"},
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}

	result := Process(Input{CandidateID: 3, RequestA: a, RequestB: b}, swapAllRules(t), Config{MaxSwaps: 4, Seed: 1})
	require.Equal(t, ResultValid, result.Code)
	require.NotNil(t, result.Request)
	require.NotEmpty(t, result.Configurations)

	// The paths differ so the preflight passes, but the differing segment
	// is too short to survive the differ's post-filter, so the diff is
	// header-only. Configuration #0 swaps every swappable variable at every
	// swappable location, which here means the header location.
	all := result.Configurations[0]
	require.NotEmpty(t, all.Variables)
	for _, vc := range all.Variables {
		assert.Contains(t, vc.Locations, "header")
	}

	swapped, err := result.Request.Evaluate("instance-b", "instance-a", all.Variables)
	require.NoError(t, err)
	assert.Equal(t, "bbb222", swapped.Headers["X-Account-Id"])
}

func TestProcess_DeterministicAcrossRuns(t *testing.T) {
	a := reqmodel.RequestInstance{
		InstanceID: "instance-a",
		URLPath:    "/accounts/aaa111/profile",
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	b := reqmodel.RequestInstance{
		InstanceID: "instance-b",
		URLPath:    "/accounts/bbb222/profile",
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}

	cfg := Config{MaxSwaps: 4, Seed: 99}
	r1 := Process(Input{CandidateID: 7, RequestA: a, RequestB: b}, swapAllRules(t), cfg)
	r2 := Process(Input{CandidateID: 7, RequestA: a, RequestB: b}, swapAllRules(t), cfg)

	require.Equal(t, ResultValid, r1.Code)
	require.Equal(t, ResultValid, r2.Code)
	assert.Equal(t, len(r1.Configurations), len(r2.Configurations))
}
