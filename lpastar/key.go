package lpastar

// Key is the LPA* priority-queue ordering pair (min(g,rhs)+h, min(g,rhs)).
type Key struct {
	Primary   float64
	Secondary float64
}

// Less reports whether k sorts strictly before o: lexicographic on
// (Primary, Secondary).
func (k Key) Less(o Key) bool {
	if k.Primary != o.Primary {
		return k.Primary < o.Primary
	}
	return k.Secondary < o.Secondary
}
