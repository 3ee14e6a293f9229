package semipoly

import "math/big"

// ============================================================
// Term flattening and bifurcation
// ============================================================

// unboundedDegree is the bound PolynomialCoeffs passes for "no bound".
const unboundedDegree = int(^uint(0) >> 1)

// flattenTerms expands a normalized expression into its flat list of
// additive terms. Nested sums flatten recursively; a tagged zero
// contributes nothing; any other node is a single term.
func flattenTerms(e Expr) []Expr {
	if t, ok := e.(*tagged); ok && t.isZero() {
		return nil
	}
	sum, ok := e.(*Add)
	if !ok {
		return []Expr{e}
	}
	out := make([]Expr, 0, len(sum.terms))
	for _, term := range sum.terms {
		out = append(out, flattenTerms(term)...)
	}
	return out
}

// isBoundedMonomial reports whether a term qualifies for the monomial
// dictionary: it must be a tagged value whose monomial has only
// non-negative integer exponents summing to at most degreeBound, and
// whose coefficient is free of designated variables. The coefficient
// scan is recursive because the opaque-coefficient fallback in the
// marker can leave whole subtrees, designated variables included,
// inside a coefficient.
func isBoundedMonomial(term Expr, vars *VarSet, degreeBound int, includeConsts bool) bool {
	t, ok := term.(*tagged)
	if !ok {
		return false
	}
	deg := degreeMap(t.mono)
	if len(deg) == 0 {
		return includeConsts && !containsDesignated(t.coeff, vars)
	}
	total := new(big.Rat)
	for _, d := range deg {
		if !d.IsInt() || d.Sign() < 0 {
			return false
		}
		total.Add(total, d)
	}
	if degreeBound != unboundedDegree &&
		total.Cmp(new(big.Rat).SetInt64(int64(degreeBound))) > 0 {
		return false
	}
	return !containsDesignated(t.coeff, vars)
}

func containsDesignated(e Expr, vars *VarSet) bool {
	if s, ok := e.(*Sym); ok {
		return vars.Contains(s)
	}
	_, args, isApp := splitNode(e)
	if !isApp {
		return false
	}
	for _, a := range args {
		if containsDesignated(a, vars) {
			return true
		}
	}
	return false
}

// bifurcateTerms splits a flat term list into the monomial dictionary
// and the residual sum of everything that failed the predicate. The
// residual is exactly 0 when every term qualified.
func bifurcateTerms(terms []Expr, vars *VarSet, degreeBound int, includeConsts bool) (*MonomialDict, Expr) {
	dict := newMonomialDict()
	var rest []Expr
	for _, term := range terms {
		if isBoundedMonomial(term, vars, degreeBound, includeConsts) {
			t := term.(*tagged)
			dict.add(t.mono, t.coeff)
			continue
		}
		rest = append(rest, unwrapTerm(term))
	}
	return dict, AddOf(rest...)
}

// unwrapTerm converts a term back into a plain expression. A tagged
// value reconstructs coefficient × positive-exponent factors over
// negative-exponent factors, splitting the degree map by sign so no
// monomial node carries a negative exponent. Opaque nodes rebuild
// structurally with their arguments unwrapped; true leaves pass through.
func unwrapTerm(e Expr) Expr {
	if t, ok := e.(*tagged); ok {
		pos := map[string]*big.Rat{}
		neg := map[string]*big.Rat{}
		for name, d := range degreeMap(t.mono) {
			if d.Sign() > 0 {
				pos[name] = d
			} else {
				neg[name] = new(big.Rat).Neg(d)
			}
		}
		out := t.coeff
		if len(pos) > 0 {
			out = MulOf(out, monoFromDegrees(pos))
		}
		if len(neg) > 0 {
			out = DivOf(out, monoFromDegrees(neg))
		}
		return out
	}
	op, args, isApp := splitNode(e)
	if !isApp {
		return e
	}
	unwrapped := make([]Expr, len(args))
	for i, a := range args {
		unwrapped[i] = unwrapTerm(a)
	}
	return joinNode(op, unwrapped)
}
