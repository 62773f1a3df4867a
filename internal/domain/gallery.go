package domain

// Gallery maps person ids to their enrolled embeddings.
// Identities iterate in the order they were first enrolled and
// samples of one identity in the order they were appended.
type Gallery struct {
	order   []string
	samples map[string][]Embedding
}

func NewGallery() *Gallery {
	return &Gallery{samples: make(map[string][]Embedding)}
}

// Append adds one sample under personID, creating the identity on first use.
func (g *Gallery) Append(personID string, emb Embedding) {
	if _, ok := g.samples[personID]; !ok {
		g.order = append(g.order, personID)
	}
	cp := make(Embedding, len(emb))
	copy(cp, emb)
	g.samples[personID] = append(g.samples[personID], cp)
}

// IDs returns identities in first-enrolment order.
func (g *Gallery) IDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Samples returns the embeddings enrolled for personID.
func (g *Gallery) Samples(personID string) []Embedding {
	return g.samples[personID]
}

// Len returns the number of identities.
func (g *Gallery) Len() int {
	return len(g.order)
}

// SampleCount returns the number of embeddings across all identities.
func (g *Gallery) SampleCount() int {
	n := 0
	for _, s := range g.samples {
		n += len(s)
	}
	return n
}

// Each calls fn for every sample in gallery order until fn returns false.
func (g *Gallery) Each(fn func(personID string, emb Embedding) bool) {
	for _, id := range g.order {
		for _, emb := range g.samples[id] {
			if !fn(id, emb) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (g *Gallery) Clone() *Gallery {
	out := NewGallery()
	g.Each(func(id string, emb Embedding) bool {
		out.Append(id, emb)
		return true
	})
	return out
}
