package crawl

// Visited tracks normalized URLs seen during one crawl invocation, in
// visit order. Deduplication spans pagination and link-following. It is
// owned by a single traversal; fetches are sequential, so no locking is
// needed.
type Visited struct {
	seen  map[string]struct{}
	order []string
}

// NewVisited creates an empty visited set.
func NewVisited() *Visited {
	return &Visited{seen: make(map[string]struct{})}
}

// Add records a normalized URL. Returns false when the URL was already
// present.
func (v *Visited) Add(url string) bool {
	if _, ok := v.seen[url]; ok {
		return false
	}
	v.seen[url] = struct{}{}
	v.order = append(v.order, url)
	return true
}

// Has reports whether the URL was already visited.
func (v *Visited) Has(url string) bool {
	_, ok := v.seen[url]
	return ok
}

// URLs returns the visited URLs in visit order.
func (v *Visited) URLs() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}
