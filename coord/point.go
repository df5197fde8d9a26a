package coord

// Point is a machine position. X, Y and Z are linear axes, A and B are the
// auxiliary axes (usually extruder drives on a printer).
type Point struct{ X, Y, Z, A, B float64 }

func (p Point) Equal(b Point) bool {
	return p == b
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	p.A += target.A
	p.B += target.B
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	p.A -= target.A
	p.B -= target.B
	return p
}

func (p Point) Mul(val float64) Point {
	p.X *= val
	p.Y *= val
	p.Z *= val
	p.A *= val
	p.B *= val
	return p
}

// Axis returns the value of the axis named by letter ('X', 'Y', 'Z', 'A' or 'B').
func (p Point) Axis(letter byte) (float64, bool) {
	switch letter {
	case 'X':
		return p.X, true
	case 'Y':
		return p.Y, true
	case 'Z':
		return p.Z, true
	case 'A':
		return p.A, true
	case 'B':
		return p.B, true
	}
	return 0, false
}

// WithAxis returns a copy of p with the named axis set to val.
// Unknown letters leave p unchanged.
func (p Point) WithAxis(letter byte, val float64) Point {
	switch letter {
	case 'X':
		p.X = val
	case 'Y':
		p.Y = val
	case 'Z':
		p.Z = val
	case 'A':
		p.A = val
	case 'B':
		p.B = val
	}
	return p
}
