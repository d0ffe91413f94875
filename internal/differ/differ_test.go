package differ

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

func TestDiff_URLPathOutOfScope(t *testing.T) {
	a := reqmodel.RequestInstance{URLPath: "/users/1/profile"}
	b := reqmodel.RequestInstance{URLPath: "/users/1/profile/extra"}

	_, err := Diff(a, b, emptyRules(t))
	assert.ErrorIs(t, err, ErrOutOfScope)
}

func TestDiff_URLPathVariable(t *testing.T) {
	a := reqmodel.RequestInstance{URLPath: "/users/111/profile", Body: reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone}}
	b := reqmodel.RequestInstance{URLPath: "/users/222/profile", Body: reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone}}

	result, err := Diff(a, b, emptyRules(t))
	require.NoError(t, err)

	vars := result.Variables[LocationURLPath]
	require.Len(t, vars, 1)
	for _, cand := range vars {
		assert.Equal(t, "111", cand.Value1)
		assert.Equal(t, "222", cand.Value2)
	}
}

func TestDiff_QueryVariable(t *testing.T) {
	a := reqmodel.RequestInstance{
		URLPath: "/accounts",
		Query:   map[string]any{"account_id": "aaa111"},
		Body:    reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	b := reqmodel.RequestInstance{
		URLPath: "/accounts",
		Query:   map[string]any{"account_id": "bbb222"},
		Body:    reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}

	result, err := Diff(a, b, emptyRules(t))
	require.NoError(t, err)

	vars := result.Variables[LocationQuery]
	require.Contains(t, vars, "account_id")
	assert.Equal(t, "aaa111", vars["account_id"].Value1)
	assert.Equal(t, "bbb222", vars["account_id"].Value2)
}

func TestDiff_QueryKeyPresentOnOnlyOneSideIsNotAVariable(t *testing.T) {
	a := reqmodel.RequestInstance{
		URLPath: "/accounts",
		Query:   map[string]any{"account_id": "aaa111", "only_in_a": "x"},
		Body:    reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	b := reqmodel.RequestInstance{
		URLPath: "/accounts",
		Query:   map[string]any{"account_id": "aaa111", "only_in_b": "y"},
		Body:    reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}

	result, err := Diff(a, b, emptyRules(t))
	require.NoError(t, err)

	vars := result.Variables[LocationQuery]
	assert.NotContains(t, vars, "only_in_a")
	assert.NotContains(t, vars, "only_in_b")
	assert.NotContains(t, vars, "account_id")
}

func TestDiff_BodyKeyPresentOnOnlyOneSideIsNotAVariable(t *testing.T) {
	a := reqmodel.RequestInstance{
		URLPath: "/x",
		Body: reqmodel.BodyInstance{
			Encoding: reqmodel.BodyEncodingJSON,
			Value:    map[string]any{"id": "user-111", "only_in_a": "x"},
		},
	}
	b := reqmodel.RequestInstance{
		URLPath: "/x",
		Body: reqmodel.BodyInstance{
			Encoding: reqmodel.BodyEncodingJSON,
			Value:    map[string]any{"id": "user-111", "only_in_b": "y"},
		},
	}

	result, err := Diff(a, b, emptyRules(t))
	require.NoError(t, err)

	vars := result.Variables[LocationBody]
	assert.NotContains(t, vars, "only_in_a")
	assert.NotContains(t, vars, "only_in_b")
}

func TestDiff_HeadersIncomparableDowngradesToTryManual(t *testing.T) {
	a := reqmodel.RequestInstance{
		URLPath: "/x",
		Headers: map[string]string{"X-A": "1", "X-B": "2"},
		Body:    reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	b := reqmodel.RequestInstance{
		URLPath: "/x",
		Headers: map[string]string{"X-A": "changed", "X-C": "3"},
		Body:    reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}

	result, err := Diff(a, b, emptyRules(t))
	require.NoError(t, err)
	assert.True(t, result.TryManual)
}

func TestDiff_BodyUnknownTriggersTryManual(t *testing.T) {
	a := reqmodel.RequestInstance{URLPath: "/x", Body: reqmodel.BodyInstance{Value: "abc", Encoding: reqmodel.BodyEncodingUnknown}}
	b := reqmodel.RequestInstance{URLPath: "/x", Body: reqmodel.BodyInstance{Value: "def", Encoding: reqmodel.BodyEncodingUnknown}}

	result, err := Diff(a, b, emptyRules(t))
	require.NoError(t, err)
	assert.True(t, result.TryManual)
}

func TestDiff_BodyNestedVariable(t *testing.T) {
	a := reqmodel.RequestInstance{
		URLPath: "/x",
		Body: reqmodel.BodyInstance{
			Encoding: reqmodel.BodyEncodingJSON,
			Value:    map[string]any{"user": map[string]any{"id": "user-111"}},
		},
	}
	b := reqmodel.RequestInstance{
		URLPath: "/x",
		Body: reqmodel.BodyInstance{
			Encoding: reqmodel.BodyEncodingJSON,
			Value:    map[string]any{"user": map[string]any{"id": "user-222"}},
		},
	}

	result, err := Diff(a, b, emptyRules(t))
	require.NoError(t, err)

	vars := result.Variables[LocationBody]
	require.Contains(t, vars, "user_id")
	assert.Equal(t, "user-111", vars["user_id"].Value1)
}

func TestDiff_PostFilterDropsShortAndFloatValues(t *testing.T) {
	a := reqmodel.RequestInstance{
		URLPath: "/x",
		Query:   map[string]any{"short": "ab", "price": "12.5"},
		Body:    reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	b := reqmodel.RequestInstance{
		URLPath: "/x",
		Query:   map[string]any{"short": "cd", "price": "19.9"},
		Body:    reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}

	result, err := Diff(a, b, emptyRules(t))
	require.NoError(t, err)

	vars := result.Variables[LocationQuery]
	assert.NotContains(t, vars, "short")
	assert.NotContains(t, vars, "price")
}

func TestShouldProcess_IdenticalPairSkipped(t *testing.T) {
	a := reqmodel.RequestInstance{URLPath: "/x", Body: reqmodel.BodyInstance{Value: "", Encoding: reqmodel.BodyEncodingNone}}
	b := reqmodel.RequestInstance{URLPath: "/x", Body: reqmodel.BodyInstance{Value: "", Encoding: reqmodel.BodyEncodingNone}}

	assert.False(t, ShouldProcess(a, b))
}

func TestShouldProcess_SegmentCountMismatchSkipped(t *testing.T) {
	a := reqmodel.RequestInstance{URLPath: "/x/y"}
	b := reqmodel.RequestInstance{URLPath: "/x"}

	assert.False(t, ShouldProcess(a, b))
}

func TestShouldProcess_DifferingURLProcessed(t *testing.T) {
	a := reqmodel.RequestInstance{URLPath: "/x/1", Body: reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone}}
	b := reqmodel.RequestInstance{URLPath: "/x/2", Body: reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone}}

	assert.True(t, ShouldProcess(a, b))
}
