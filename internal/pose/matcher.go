package pose

import "sort"

// Match is the similarity of observed angles to one template.
type Match struct {
	Template *Template // The scored template
	Index    int       // Catalog index of the template
	Score    float64   // Similarity in [0,1], higher is better
}

// Matcher ranks observed angles against every template of a catalog.
type Matcher struct {
	catalog *Catalog
	policy  Policy
}

// NewMatcher creates a Matcher. A nil policy selects the default tolerance policy.
func NewMatcher(catalog *Catalog, policy Policy) *Matcher {
	if policy == nil {
		policy = ToleranceScorer{Tolerance: DefaultTolerance}
	}
	return &Matcher{catalog: catalog, policy: policy}
}

// Catalog returns the catalog the matcher scores against.
func (m *Matcher) Catalog() *Catalog {
	return m.catalog
}

// Policy returns the scoring policy.
func (m *Matcher) Policy() Policy {
	return m.policy
}

// Rank scores observed angles against the whole catalog. Results are sorted by score in
// descending order; equal scores keep catalog order. Absent angles yield nil.
func (m *Matcher) Rank(observed Angles) []Match {
	if observed == nil || m.catalog.Len() == 0 {
		return nil
	}

	matches := make([]Match, 0, m.catalog.Len())
	for i, t := range m.catalog.templates {
		matches = append(matches, Match{
			Template: t,
			Index:    i,
			Score:    m.policy.Score(t.Angles, observed),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// Top returns at most n leading entries of a ranking.
func Top(ranking []Match, n int) []Match {
	if n < 0 {
		n = 0
	}
	if len(ranking) > n {
		ranking = ranking[:n]
	}
	return append([]Match(nil), ranking...)
}
