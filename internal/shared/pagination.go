package shared

// Page describes limit/offset pagination bounds.
type Page struct {
	Limit  int
	Offset int
}

// Clamp normalises the bounds to sane defaults.
func (p Page) Clamp() Page {
	if p.Limit <= 0 {
		p.Limit = 25
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
