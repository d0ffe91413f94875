package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiid2001/vsf-analyzer/internal/patterns"
)

func rulesWith(t *testing.T, nameIgnore, nameSwap, valueSwap []string) *patterns.Rules {
	t.Helper()
	mk := func(ps []string) *patterns.List {
		l, err := patterns.FromStrings(ps)
		require.NoError(t, err)
		return l
	}
	return &patterns.Rules{
		HeaderIgnore:       patterns.Empty(),
		CookieIgnore:       patterns.Empty(),
		QueryNameIgnore:    patterns.Empty(),
		VariableNameIgnore: mk(nameIgnore),
		VariableNameSwap:   mk(nameSwap),
		VariableValueSwap:  mk(valueSwap),
	}
}

func TestShouldSwap_LengthBounds(t *testing.T) {
	rules := rulesWith(t, nil, nil, nil)
	d := ShouldSwap("user_id", "ab", rules, nil)
	assert.False(t, d.Swap)

	tooLong := make([]byte, 250)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	d = ShouldSwap("user_id", string(tooLong), rules, nil)
	assert.False(t, d.Swap)
}

func TestShouldSwap_IgnoredNameRule(t *testing.T) {
	rules := rulesWith(t, []string{"^csrf_token$"}, nil, nil)
	d := ShouldSwap("csrf_token", "some-long-value", rules, nil)
	assert.False(t, d.Swap)
	assert.True(t, d.IgnoredNameRule)
}

func TestShouldSwap_MatchingNameRule(t *testing.T) {
	rules := rulesWith(t, nil, []string{"(?i)user_id"}, nil)
	d := ShouldSwap("user_id", "aaa111bbb", rules, nil)
	assert.True(t, d.Swap)
	assert.True(t, d.MatchingNameRule)
}

func TestShouldSwap_IdentityKeywordOverride(t *testing.T) {
	rules := rulesWith(t, nil, nil, nil)
	d := ShouldSwap("display_name", "alice-wonderland", rules, []string{"alice"})
	assert.True(t, d.Swap)
	assert.Equal(t, "matches_identity", d.ExtraReason)
}

func TestShouldSwap_TimestampOverrideRejects(t *testing.T) {
	rules := rulesWith(t, nil, []string{".*"}, nil)
	// 2021-01-01T00:00:00Z in Unix seconds.
	d := ShouldSwap("created_at", "1609459200", rules, nil)
	assert.False(t, d.Swap)
	assert.Equal(t, "is_timestamp", d.ExtraReason)
}

func TestShouldSwap_FloatOverrideRejects(t *testing.T) {
	rules := rulesWith(t, nil, []string{".*"}, nil)
	d := ShouldSwap("balance", "42.75", rules, nil)
	assert.False(t, d.Swap)
	assert.Equal(t, "is_float", d.ExtraReason)
}

func TestSessionIdentity_KeywordsExcludesEmpty(t *testing.T) {
	id := SessionIdentity{Username: "bob", Email: "", FirstName: "  ", LastName: "Builder"}
	kws := id.Keywords()
	assert.ElementsMatch(t, []string{"bob", "builder"}, kws)
}

func TestIdentityKeywords_Dedup(t *testing.T) {
	a := SessionIdentity{Username: "bob"}
	b := SessionIdentity{Username: "BOB", Email: "bob@example.com"}
	kws := IdentityKeywords(a, b)
	assert.ElementsMatch(t, []string{"bob", "bob@example.com"}, kws)
}
