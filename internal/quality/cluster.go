package quality

import (
	"strings"

	"github.com/wikilens/wikilens/internal/model"
)

// SimilarityFunc measures textual similarity of two documents in [0,1].
type SimilarityFunc func(a, b string) float64

// Clusterer groups sources judged non-independent: same publisher domain, or
// near-duplicate content such as syndicated wire-service copies.
type Clusterer struct {
	threshold float64
	// Similarity is pluggable for tuning; defaults to word-shingle Jaccard.
	Similarity SimilarityFunc
}

// NewClusterer creates a clusterer from the quality configuration.
func NewClusterer(cfg model.QualityConfig) *Clusterer {
	shingle := cfg.ShingleSize
	if shingle <= 0 {
		shingle = 3
	}
	return &Clusterer{
		threshold: cfg.SimilarityThreshold,
		Similarity: func(a, b string) float64 {
			return shingleJaccard(a, b, shingle)
		},
	}
}

// Cluster assigns a cluster id to every source and returns the diversity
// summary. Two sources share a cluster when their registrable domains match
// or their content similarity exceeds the threshold. Cluster ids are assigned
// in input order, so a deterministic input ordering yields deterministic ids.
func (c *Clusterer) Cluster(sources []*model.Source) model.Diversity {
	n := len(sources)
	if n == 0 {
		return model.Diversity{}
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if registrableDomain(sources[i].Host) != "" &&
				registrableDomain(sources[i].Host) == registrableDomain(sources[j].Host) {
				union(i, j)
				continue
			}
			if sources[i].Fetched() && sources[j].Fetched() &&
				c.Similarity(sources[i].Content, sources[j].Content) >= c.threshold {
				union(i, j)
			}
		}
	}

	ids := make(map[int]int)
	for i, src := range sources {
		root := find(i)
		id, ok := ids[root]
		if !ok {
			id = len(ids) + 1
			ids[root] = id
		}
		src.Cluster = id
	}

	return model.Diversity{
		Sources:  n,
		Clusters: len(ids),
		Ratio:    float64(len(ids)) / float64(n),
	}
}

// multiPartTLDs are public suffixes where the registrable domain spans three
// labels (example.co.uk, not co.uk).
var multiPartTLDs = map[string]bool{
	"co.uk": true, "ac.uk": true, "gov.uk": true, "org.uk": true,
	"com.au": true, "net.au": true, "org.au": true,
	"co.jp": true, "co.in": true, "co.nz": true, "com.br": true,
}

func registrableDomain(host string) string {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	suffix := strings.Join(labels[len(labels)-2:], ".")
	if multiPartTLDs[suffix] && len(labels) >= 3 {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return suffix
}

// shingleJaccard computes Jaccard similarity over word k-shingles.
func shingleJaccard(a, b string, k int) float64 {
	sa := shingles(a, k)
	sb := shingles(b, k)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	intersection := 0
	for s := range sa {
		if sb[s] {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	return float64(intersection) / float64(union)
}

func shingles(text string, k int) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	out := make(map[string]bool)
	if len(words) < k {
		if len(words) > 0 {
			out[strings.Join(words, " ")] = true
		}
		return out
	}
	for i := 0; i+k <= len(words); i++ {
		out[strings.Join(words[i:i+k], " ")] = true
	}
	return out
}
