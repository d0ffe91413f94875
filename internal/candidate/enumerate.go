package candidate

import (
	"math/rand"
	"sort"

	"github.com/saiid2001/vsf-analyzer/internal/differ"
	"github.com/saiid2001/vsf-analyzer/internal/swaprequest"
)

// enumerate builds up to maxSwaps+1 variable-subset configurations:
// configuration #0 always swaps every swappable variable at every
// swappable location; the rest are random-sized random subsets, each
// filtered by cfg's include/exclude lists, with attempts that end up
// empty after filtering discarded rather than counted.
func enumerate(swappable map[string][]differ.Location, flattened map[string]string, cfg Config, maxSwaps int, rng *rand.Rand) []Configuration {
	names := make([]string, 0, len(swappable))
	for n := range swappable {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil
	}

	all := buildConfiguration(names, swappable, flattened, cfg)
	if len(all.Variables) == 0 {
		return nil
	}
	configs := []Configuration{all}

	const maxAttempts = 64
	for attempt := 0; attempt < maxAttempts && len(configs) < maxSwaps+1; attempt++ {
		subsetSize := 1 + rng.Intn(len(names))
		perm := rng.Perm(len(names))
		chosen := make([]string, subsetSize)
		for i := 0; i < subsetSize; i++ {
			chosen[i] = names[perm[i]]
		}
		cfgResult := buildConfiguration(chosen, swappable, flattened, cfg)
		if len(cfgResult.Variables) == 0 {
			continue
		}
		configs = append(configs, cfgResult)
	}

	return configs
}

func buildConfiguration(names []string, swappable map[string][]differ.Location, flattened map[string]string, cfg Config) Configuration {
	vars := map[string]swaprequest.VariableConfig{}
	for _, name := range names {
		locs := filterLocations(name, flattened[name], swappable[name], cfg)
		if len(locs) == 0 {
			continue
		}
		vars[name] = swaprequest.VariableConfig{Locations: locs}
	}
	return Configuration{Variables: vars}
}

func filterLocations(name, value string, locs []differ.Location, cfg Config) []string {
	if cfg.SwapNameInclude != nil && !cfg.SwapNameInclude.Matches(name, false) {
		return nil
	}
	if cfg.SwapNameExclude != nil && cfg.SwapNameExclude.Matches(name, false) {
		return nil
	}
	if cfg.SwapValueInclude != nil && !cfg.SwapValueInclude.Matches(value, false) {
		return nil
	}
	if cfg.SwapValueExclude != nil && cfg.SwapValueExclude.Matches(value, false) {
		return nil
	}

	var out []string
	for _, loc := range locs {
		locStr := string(loc)
		if cfg.SwapLocationsInclude != nil && !cfg.SwapLocationsInclude[locStr] {
			continue
		}
		if cfg.SwapLocationsExclude != nil && cfg.SwapLocationsExclude[locStr] {
			continue
		}
		out = append(out, locStr)
	}
	return out
}
