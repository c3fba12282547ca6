package paths

// Ref builds paths in a chain-safe way: every step returns a new Ref and never
// aliases the receiver's segments.
type Ref struct {
	segs []Segment
}

// Root returns the Ref for the empty path.
func Root() Ref { return Ref{} }

// At parses p into a Ref. Malformed input yields the root.
func At(p string) Ref {
	segs, err := Tokenize(p)
	if err != nil {
		return Ref{}
	}
	return Ref{segs: segs}
}

func (r Ref) Field(name string) Ref {
	if name == "" {
		return r
	}
	return Ref{segs: append(append([]Segment{}, r.segs...), Segment{Name: name})}
}

func (r Ref) Index(i int) Ref {
	next := At(Index("", i))
	return Ref{segs: append(append([]Segment{}, r.segs...), next.segs...)}
}

func (r Ref) Segments() []Segment { return append([]Segment(nil), r.segs...) }

func (r Ref) String() string { return Join(r.segs) }
