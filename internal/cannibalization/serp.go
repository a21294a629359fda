package cannibalization

import (
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/search"
)

const (
	serpURLWeight    = 0.6
	serpDomainWeight = 0.4
)

// SerpOverlap compares two result pages by shared URLs and shared domains.
// Each term is normalized by the larger of the two sets.
func SerpOverlap(a, b []search.Item) float64 {
	urlsA, domainsA := resultSets(a)
	urlsB, domainsB := resultSets(b)
	return serpURLWeight*overlapRatio(urlsA, urlsB) + serpDomainWeight*overlapRatio(domainsA, domainsB)
}

func resultSets(items []search.Item) (map[string]struct{}, map[string]struct{}) {
	urls := make(map[string]struct{}, len(items))
	domains := make(map[string]struct{}, len(items))
	for _, item := range items {
		key, domain := search.NormalizeURL(item.Link)
		if key == "" {
			continue
		}
		urls[key] = struct{}{}
		domains[domain] = struct{}{}
	}
	return urls, domains
}

func overlapRatio(a, b map[string]struct{}) float64 {
	denominator := max(len(a), len(b))
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for key := range a {
		if _, ok := b[key]; ok {
			shared++
		}
	}
	return float64(shared) / float64(denominator)
}
