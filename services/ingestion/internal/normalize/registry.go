package normalize

// Sequence issues surrogate ids starting at 1. The zero value is ready to use.
type Sequence struct {
	last int64
}

func (s *Sequence) Next() int64 {
	s.last++
	return s.last
}

// Last returns the most recently issued id, or 0.
func (s *Sequence) Last() int64 { return s.last }

// Registry maps an external key to the surrogate id assigned on first sight.
// The zero value is ready to use. It is not safe for concurrent use.
type Registry[K comparable] struct {
	ids map[K]int64
	seq Sequence
}

// Resolve returns the id registered for key. An unseen key gets the next id,
// create is called once with it, and the new id is returned.
func (r *Registry[K]) Resolve(key K, create func(id int64)) int64 {
	id, _ := r.resolve(key, create)
	return id
}

// resolve is Resolve that also reports whether the key was new.
func (r *Registry[K]) resolve(key K, create func(id int64)) (int64, bool) {
	if id, ok := r.ids[key]; ok {
		return id, false
	}
	if r.ids == nil {
		r.ids = make(map[K]int64)
	}
	id := r.seq.Next()
	r.ids[key] = id
	if create != nil {
		create(id)
	}
	return id, true
}

func (r *Registry[K]) Lookup(key K) (int64, bool) {
	id, ok := r.ids[key]
	return id, ok
}

func (r *Registry[K]) Len() int { return len(r.ids) }

type mediaKey struct {
	mediaType string
	tmdbID    int64
}

// seasonKey and episodeKey carry the show's external id; season and
// episode numbers repeat across shows.
type seasonKey struct {
	showID int64
	season int
}

type episodeKey struct {
	showID  int64
	season  int
	episode int
}
