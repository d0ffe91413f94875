package swaprequest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiid2001/vsf-analyzer/internal/reqmodel"
	"github.com/saiid2001/vsf-analyzer/internal/swaptemplate"
)

func instanceA() reqmodel.RequestInstance {
	return reqmodel.RequestInstance{
		InstanceID: "instance-a",
		Method:     "GET",
		URLPath:    "/accounts/aaa111/profile",
		Headers:    map[string]string{"X-Account-Id": "aaa111"},
		Query:      map[string]any{"account_id": "aaa111"},
		Body:       reqmodel.BodyInstance{Value: "", Encoding: reqmodel.BodyEncodingNone},
	}
}

func instanceB() reqmodel.RequestInstance {
	return reqmodel.RequestInstance{
		InstanceID: "instance-b",
		Method:     "GET",
		URLPath:    "/accounts/bbb222/profile",
		Headers:    map[string]string{"X-Account-Id": "bbb222"},
		Query:      map[string]any{"account_id": "bbb222"},
		Body:       reqmodel.BodyInstance{Value: "", Encoding: reqmodel.BodyEncodingNone},
	}
}

func TestSwapRequest_BuildRegisterEvaluate(t *testing.T) {
	ref := instanceA()
	req := Build(ref, map[string]string{"account_id": "aaa111"})

	require.NoError(t, req.RegisterInstance(instanceB()))

	config := map[string]VariableConfig{
		"account_id": {Locations: []string{"url_path"}},
	}
	swapped, err := req.Evaluate("instance-b", "instance-a", config)
	require.NoError(t, err)

	assert.Equal(t, "/accounts/bbb222/profile", swapped.URLPath)
	// Query and headers were not in the swap config, so they keep the
	// reference instance's value.
	assert.Equal(t, "aaa111", swapped.Query["account_id"])
	assert.Equal(t, "aaa111", swapped.Headers["X-Account-Id"])
}

func TestSwapRequest_EvaluateAllLocationsSwapped(t *testing.T) {
	ref := instanceA()
	req := Build(ref, map[string]string{"account_id": "aaa111"})
	require.NoError(t, req.RegisterInstance(instanceB()))

	config := map[string]VariableConfig{
		"account_id": {Locations: []string{"url_path", "header", "query", "url"}},
	}
	swapped, err := req.Evaluate("instance-b", "instance-a", config)
	require.NoError(t, err)

	assert.Equal(t, "/accounts/bbb222/profile", swapped.URLPath)
	assert.Equal(t, "bbb222", swapped.Query["account_id"])
	assert.Equal(t, "bbb222", swapped.Headers["X-Account-Id"])
}

func TestSwapRequest_RegisterInstanceRejectsInconsistentValues(t *testing.T) {
	ref := reqmodel.RequestInstance{
		InstanceID: "instance-a",
		URLPath:    "/x/shared-value",
		Query:      map[string]any{"other": "shared-value"},
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	req := Build(ref, map[string]string{"shared": "shared-value"})

	inconsistent := reqmodel.RequestInstance{
		InstanceID: "instance-b",
		URLPath:    "/x/one",
		Query:      map[string]any{"other": "two"},
		Body:       reqmodel.BodyInstance{Encoding: reqmodel.BodyEncodingNone},
	}
	err := req.RegisterInstance(inconsistent)
	assert.ErrorIs(t, err, swaptemplate.ErrMultipleValues)
}

func TestSwapRequest_ToDictFromDictRoundTrip(t *testing.T) {
	ref := instanceA()
	req := Build(ref, map[string]string{"account_id": "aaa111"})
	require.NoError(t, req.RegisterInstance(instanceB()))

	data := req.ToDict()
	rebuilt, err := FromDict(data)
	require.NoError(t, err)

	assert.ElementsMatch(t, req.Template.VariableNames(), rebuilt.Template.VariableNames())
	assert.ElementsMatch(t, req.Instances, rebuilt.Instances)

	origHash, err := req.Hash()
	require.NoError(t, err)
	rebuiltHash, err := rebuilt.Hash()
	require.NoError(t, err)
	assert.Equal(t, origHash, rebuiltHash)
}

func TestSwapRequest_HashDeterministic(t *testing.T) {
	ref := instanceA()
	req1 := Build(ref, map[string]string{"account_id": "aaa111"})
	req2 := Build(ref, map[string]string{"account_id": "aaa111"})

	h1, err := req1.Hash()
	require.NoError(t, err)
	h2, err := req2.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
