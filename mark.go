package semipoly

// markerConfig fixes the marker's behavior for unary operators: names
// listed in linearUnary are known to commute with scaling of their
// argument (negation being the canonical member), so marking may pass
// through them. The table is immutable input, not ambient registration.
type markerConfig struct {
	linearUnary map[string]bool
}

func defaultMarkerConfig() markerConfig {
	return markerConfig{linearUnary: map[string]bool{"neg": true}}
}

// markVars rewrites an expression into a tree over tagged values:
// designated variables become (var, 1), other true leaves (1, leaf),
// and +, *, ^, / are rebuilt over marked operands. sqrt is rewritten as
// a 1/2 power first. Any unrecognized operator is kept whole as an
// opaque coefficient; designated variables inside it stay unmarked so
// the coefficient scan in the bifurcator flags the term.
func markVars(e Expr, vars *VarSet, cfg markerConfig) Expr {
	if s, ok := e.(*Sym); ok && vars.Contains(s) {
		return taggedVar(s)
	}
	op, args, isApp := splitNode(e)
	if !isApp {
		return taggedCoeff(e)
	}
	switch op {
	case "^", "/":
		return joinNode(op, []Expr{
			markVars(args[0], vars, cfg),
			markVars(args[1], vars, cfg),
		})
	case "+", "*":
		marked := make([]Expr, len(args))
		for i, a := range args {
			marked[i] = markVars(a, vars, cfg)
		}
		return joinNode(op, marked)
	}
	if len(args) == 1 {
		if op == "sqrt" {
			return markVars(&Pow{base: args[0], exp: F(1, 2)}, vars, cfg)
		}
		if cfg.linearUnary[op] {
			return joinNode(op, []Expr{markVars(args[0], vars, cfg)})
		}
	}
	return taggedCoeff(e)
}
