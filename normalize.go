package semipoly

// ============================================================
// Monomial normalizer — fixed-point rewrite over marked trees
// ============================================================

// normalizeMarked drives the rule set to a fixed point. Each pass walks
// bottom-up and applies the first matching rule; any hit restarts the
// pass from the top, since a fused node can unlock rules above it.
// Termination is structural: every rule either fuses tagged values
// (fewer un-fused sum/product/power/division nodes) or expands a finite
// integer power of a sum, and such expansions bottom out.
func normalizeMarked(e Expr, cfg markerConfig) Expr {
	for {
		next, changed := rewriteOnce(e, cfg)
		if !changed {
			return next
		}
		e = next
	}
}

// rewriteOnce applies at most one rule, innermost first.
func rewriteOnce(e Expr, cfg markerConfig) (Expr, bool) {
	op, args, isApp := splitNode(e)
	if !isApp {
		return e, false
	}
	for i, a := range args {
		if na, changed := rewriteOnce(a, cfg); changed {
			newArgs := append([]Expr{}, args...)
			newArgs[i] = na
			return joinNode(op, newArgs), true
		}
	}
	return applyRule(op, args, cfg)
}

// applyRule tries the rule set at a single node whose children are
// already in normal form. Returns the input unchanged when nothing
// matches. No cross-term fraction simplification is attempted.
func applyRule(op string, args []Expr, cfg markerConfig) (Expr, bool) {
	switch op {
	case "^":
		base, exp := args[0], args[1]
		r, ok := realValue(exp)
		if !ok {
			break
		}
		// tagged ^ real
		if t, isTagged := base.(*tagged); isTagged {
			return t.power(r), true
		}
		// (sum of terms) ^ non-negative integer: expand into a product
		// of copies; the distribution rule finishes the multinomial.
		if sum, isSum := base.(*Add); isSum && r.IsInteger() && !r.IsNegative() {
			return expandSumPower(sum, r.val.Num().Int64()), true
		}
	case "*":
		// Nested raw products flatten first.
		for _, f := range args {
			if _, nested := f.(*Mul); nested {
				return flattenFactors(args), true
			}
		}
		// A sum-valued factor distributes fully.
		for i, f := range args {
			if sum, isSum := f.(*Add); isSum {
				return distributeProduct(args, i, sum), true
			}
		}
		// A product of only tagged values fuses into one.
		allTagged := true
		for _, f := range args {
			if _, isTagged := f.(*tagged); !isTagged {
				allTagged = false
				break
			}
		}
		if allTagged && len(args) > 0 {
			acc := args[0].(*tagged)
			for _, f := range args[1:] {
				acc = acc.multiply(f.(*tagged))
			}
			return acc, true
		}
	case "+":
		for _, t := range args {
			if _, nested := t.(*Add); nested {
				return flattenSum(args), true
			}
		}
	case "/":
		if num, ok := args[0].(*tagged); ok {
			if den, ok2 := args[1].(*tagged); ok2 {
				return num.divide(den), true
			}
		}
	default:
		if len(args) == 1 && cfg.linearUnary[op] {
			// A linear unary operator folds into the coefficient of a
			// tagged value and distributes over a sum.
			if t, ok := args[0].(*tagged); ok {
				return &tagged{mono: t.mono, coeff: applyUnary(op, t.coeff)}, true
			}
			if sum, ok := args[0].(*Add); ok {
				terms := make([]Expr, len(sum.terms))
				for i, term := range sum.terms {
					terms[i] = joinNode(op, []Expr{term})
				}
				return &Add{terms: terms}, true
			}
		}
	}
	return joinNode(op, args), false
}

func applyUnary(op string, arg Expr) Expr {
	if op == "neg" {
		if n, ok := arg.(*Num); ok {
			return numNeg(n)
		}
	}
	return &Func{name: op, arg: arg}
}

// expandSumPower rewrites sum^n as an n-fold product. n == 0 collapses
// to the tagged constant one, n == 1 unwraps.
func expandSumPower(sum *Add, n int64) Expr {
	switch n {
	case 0:
		return taggedOne()
	case 1:
		return sum
	}
	factors := make([]Expr, n)
	for i := range factors {
		factors[i] = sum
	}
	return &Mul{factors: factors}
}

func flattenFactors(args []Expr) Expr {
	flat := make([]Expr, 0, len(args))
	for _, f := range args {
		if inner, ok := f.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, f)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &Mul{factors: flat}
}

func flattenSum(args []Expr) Expr {
	var out Expr
	for _, t := range args {
		if out == nil {
			if inner, ok := t.(*Add); ok {
				out = &Add{terms: append([]Expr{}, inner.terms...)}
			} else {
				out = t
			}
			continue
		}
		out = addTerms(out, t)
	}
	if out == nil {
		return taggedOne()
	}
	return out
}

// distributeProduct expands the sum at index i against the remaining
// factors, producing one product per summand.
func distributeProduct(args []Expr, i int, sum *Add) Expr {
	rest := make([]Expr, 0, len(args)-1)
	for j, f := range args {
		if j != i {
			rest = append(rest, f)
		}
	}
	terms := make([]Expr, len(sum.terms))
	for k, t := range sum.terms {
		if len(rest) == 0 {
			terms[k] = t
			continue
		}
		terms[k] = &Mul{factors: append([]Expr{t}, rest...)}
	}
	return &Add{terms: terms}
}
