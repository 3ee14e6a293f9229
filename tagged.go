package semipoly

import (
	"math/big"
	"sort"
)

// ============================================================
// tagged — one additive term during marking and normalization
// ============================================================

// tagged is semantically coeff × mono. The monomial part is either the
// constant 1 or a canonical product/power structure over designated
// variables; the coefficient part is an arbitrary expression (it may
// still contain designated variables transiently, which is what the
// bounded-monomial predicate checks for later).
//
// tagged implements Expr so marked trees can hold it, but it never
// escapes into results: the bifurcator consumes every instance.
type tagged struct {
	mono  Expr
	coeff Expr
}

func taggedVar(v *Sym) *tagged    { return &tagged{mono: v, coeff: N(1)} }
func taggedCoeff(e Expr) *tagged  { return &tagged{mono: N(1), coeff: e} }
func taggedOne() *tagged          { return &tagged{mono: N(1), coeff: N(1)} }

func (t *tagged) Simplify() Expr { return t }
func (t *tagged) String() string {
	return "<" + t.coeff.String() + " ; " + t.mono.String() + ">"
}
func (t *tagged) Sub(string, Expr) Expr { return t }
func (t *tagged) Eval() (*Num, bool) {
	if r, ok := t.realNum(); ok {
		return r, true
	}
	return nil, false
}
func (t *tagged) Equal(other Expr) bool {
	o, ok := other.(*tagged)
	return ok && t.mono.Equal(o.mono) && t.coeff.Equal(o.coeff)
}
func (t *tagged) exprType() string { return "tagged" }

// realNum reports whether the value reduces to a plain number: the
// monomial part is 1 and the coefficient is numeric.
func (t *tagged) realNum() (*Num, bool) {
	if !isNumEqual(t.mono, 1) {
		return nil, false
	}
	n, ok := t.coeff.(*Num)
	return n, ok
}

func (t *tagged) isZero() bool {
	n, ok := t.coeff.(*Num)
	return ok && n.IsZero()
}

// multiply folds monomial parts through the degree maps (keeping the
// monomial canonical) and coefficient parts through the constructor.
// This is the one eager merge: a product of monomials is a monomial.
func (t *tagged) multiply(o *tagged) *tagged {
	deg := addDegrees(degreeMap(t.mono), degreeMap(o.mono), 1)
	return &tagged{mono: monoFromDegrees(deg), coeff: MulOf(t.coeff, o.coeff)}
}

// divide subtracts the divisor's degrees; exponents may go negative
// here and are rejected later by the degree-bound check.
func (t *tagged) divide(o *tagged) *tagged {
	deg := addDegrees(degreeMap(t.mono), degreeMap(o.mono), -1)
	var coeff Expr
	if cn, ok := o.coeff.(*Num); ok {
		coeff = MulOf(t.coeff, numRecip(cn))
	} else {
		coeff = DivOf(t.coeff, o.coeff)
	}
	return &tagged{mono: monoFromDegrees(deg), coeff: coeff}
}

// power raises both parts to a real exponent.
func (t *tagged) power(r *Num) *tagged {
	deg := scaleDegrees(degreeMap(t.mono), r.val)
	return &tagged{mono: monoFromDegrees(deg), coeff: PowOf(t.coeff, r)}
}

// addTerms builds an unevaluated sum, flattening into an existing sum's
// argument list. Tagged values are never merged on addition; coefficient
// aggregation happens in the bifurcator.
func addTerms(a, b Expr) Expr {
	if sa, ok := a.(*Add); ok {
		if sb, ok2 := b.(*Add); ok2 {
			return &Add{terms: append(append([]Expr{}, sa.terms...), sb.terms...)}
		}
		return &Add{terms: append(append([]Expr{}, sa.terms...), b)}
	}
	if sb, ok := b.(*Add); ok {
		return &Add{terms: append([]Expr{a}, sb.terms...)}
	}
	return &Add{terms: []Expr{a, b}}
}

// realValue extracts a plain number from an expression that may have
// been wrapped into a tagged value during marking.
func realValue(e Expr) (*Num, bool) {
	if n, ok := e.(*Num); ok {
		return n, true
	}
	if t, ok := e.(*tagged); ok {
		return t.realNum()
	}
	return nil, false
}

// ============================================================
// Degree analysis
// ============================================================

// degreeMap computes variable name -> exponent for an expression.
// Numbers map to nothing; a symbol has degree one; products merge by
// summation; a division merges the numerator with the negated
// denominator map; a power with numeric exponent scales the base map.
func degreeMap(e Expr) map[string]*big.Rat {
	switch v := e.(type) {
	case *Sym:
		one := new(big.Rat).SetInt64(1)
		return map[string]*big.Rat{v.name: one}
	case *Mul:
		out := map[string]*big.Rat{}
		for _, f := range v.factors {
			out = addDegrees(out, degreeMap(f), 1)
		}
		return out
	case *Div:
		return addDegrees(degreeMap(v.num), degreeMap(v.den), -1)
	case *Pow:
		if n, ok := v.exp.(*Num); ok {
			return scaleDegrees(degreeMap(v.base), n.val)
		}
	}
	return map[string]*big.Rat{}
}

// totalDegree sums the degree map entries; zero for numeric input.
func totalDegree(e Expr) *big.Rat {
	total := new(big.Rat)
	for _, d := range degreeMap(e) {
		total.Add(total, d)
	}
	return total
}

// addDegrees merges b into a copy of a, each entry scaled by sign.
// Entries that cancel to zero are dropped, so x/x collapses to 1.
func addDegrees(a, b map[string]*big.Rat, sign int64) map[string]*big.Rat {
	out := make(map[string]*big.Rat, len(a)+len(b))
	for k, v := range a {
		out[k] = new(big.Rat).Set(v)
	}
	scale := new(big.Rat).SetInt64(sign)
	for k, v := range b {
		add := new(big.Rat).Mul(v, scale)
		if cur, ok := out[k]; ok {
			add = add.Add(add, cur)
		}
		if add.Sign() == 0 {
			delete(out, k)
			continue
		}
		out[k] = add
	}
	return out
}

func scaleDegrees(m map[string]*big.Rat, r *big.Rat) map[string]*big.Rat {
	out := make(map[string]*big.Rat, len(m))
	if r.Sign() == 0 {
		return out
	}
	for k, v := range m {
		out[k] = new(big.Rat).Mul(v, r)
	}
	return out
}

// monoFromDegrees rebuilds the canonical monomial for a degree map:
// variable names sorted, exponent one elided, single factor unwrapped.
// The empty map is the constant 1. Canonical structure makes monomial
// String() forms usable as stable dictionary keys.
func monoFromDegrees(deg map[string]*big.Rat) Expr {
	if len(deg) == 0 {
		return N(1)
	}
	names := make([]string, 0, len(deg))
	for name := range deg {
		names = append(names, name)
	}
	sort.Strings(names)
	factors := make([]Expr, 0, len(names))
	for _, name := range names {
		d := deg[name]
		if d.Cmp(new(big.Rat).SetInt64(1)) == 0 {
			factors = append(factors, S(name))
		} else {
			factors = append(factors, &Pow{base: S(name), exp: numFromRat(d)})
		}
	}
	if len(factors) == 1 {
		return factors[0]
	}
	return &Mul{factors: factors}
}
