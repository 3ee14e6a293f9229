package semipoly

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	set "github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"

	ilog "github.com/njchilds90/semipoly/internal/log"
)

// ============================================================
// VarSet — ordered, duplicate-free designated variables
// ============================================================

type VarSet struct {
	vars  []*Sym
	names *set.Set[string]
	index map[string]int
}

// NewVarSet validates and indexes the caller's variable ordering.
// Duplicates are an error, never silently deduplicated.
func NewVarSet(vars ...*Sym) (*VarSet, error) {
	names := set.New[string](len(vars))
	index := make(map[string]int, len(vars))
	for i, v := range vars {
		if !names.Insert(v.Name()) {
			return nil, errors.Errorf("semipoly: duplicate designated variable %q", v.Name())
		}
		index[v.Name()] = i
	}
	return &VarSet{vars: vars, names: names, index: index}, nil
}

func (s *VarSet) Contains(v *Sym) bool { return s.names.Contains(v.Name()) }
func (s *VarSet) Len() int             { return len(s.vars) }
func (s *VarSet) Vars() []*Sym         { return append([]*Sym{}, s.vars...) }

// IndexOf returns the column position of a designated variable.
func (s *VarSet) IndexOf(v *Sym) (int, bool) {
	i, ok := s.index[v.Name()]
	return i, ok
}

// ============================================================
// MonomialDict — canonical monomial -> coefficient expression
// ============================================================

type MonomialDict struct {
	order  []Expr
	coeffs map[string]Expr
}

func newMonomialDict() *MonomialDict {
	return &MonomialDict{coeffs: map[string]Expr{}}
}

// add aggregates with += semantics on key collision.
func (d *MonomialDict) add(mono, coeff Expr) {
	key := mono.String()
	if existing, ok := d.coeffs[key]; ok {
		d.coeffs[key] = AddOf(existing, coeff)
		return
	}
	d.order = append(d.order, mono)
	d.coeffs[key] = coeff
}

func (d *MonomialDict) Len() int { return len(d.order) }

// Monomials returns the keys in insertion order.
func (d *MonomialDict) Monomials() []Expr { return append([]Expr{}, d.order...) }

// Coeff looks up the coefficient for a structurally equal monomial.
func (d *MonomialDict) Coeff(mono Expr) (Expr, bool) {
	c, ok := d.coeffs[mono.String()]
	return c, ok
}

// Reconstruct sums coefficient × monomial over all entries.
func (d *MonomialDict) Reconstruct() Expr {
	terms := make([]Expr, len(d.order))
	for i, mono := range d.order {
		terms[i] = MulOf(d.coeffs[mono.String()], mono)
	}
	return AddOf(terms...)
}

func (d *MonomialDict) String() string {
	parts := make([]string, len(d.order))
	for i, mono := range d.order {
		parts[i] = mono.String() + ": " + d.coeffs[mono.String()].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ============================================================
// SparseMatrix — bounds-checked sparse matrix of expressions
// ============================================================

type cell struct{ row, col int }

// SparseMatrix stores symbolic coefficients; absent cells read as 0.
type SparseMatrix struct {
	rows, cols int
	cells      map[cell]Expr
}

func NewSparseMatrix(rows, cols int) *SparseMatrix {
	return &SparseMatrix{rows: rows, cols: cols, cells: map[cell]Expr{}}
}

func (m *SparseMatrix) checkBounds(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("semipoly: matrix index out of range [%d,%d] for %dx%d", row, col, m.rows, m.cols))
	}
}

func (m *SparseMatrix) Get(row, col int) Expr {
	m.checkBounds(row, col)
	if e, ok := m.cells[cell{row, col}]; ok {
		return e
	}
	return N(0)
}

func (m *SparseMatrix) Set(row, col int, val Expr) {
	m.checkBounds(row, col)
	if n, ok := val.(*Num); ok && n.IsZero() {
		delete(m.cells, cell{row, col})
		return
	}
	m.cells[cell{row, col}] = val
}

func (m *SparseMatrix) Rows() int    { return m.rows }
func (m *SparseMatrix) Cols() int    { return m.cols }
func (m *SparseMatrix) NonZero() int { return len(m.cells) }

// MulVec multiplies by a column vector of expressions.
func (m *SparseMatrix) MulVec(vec []Expr) []Expr {
	if len(vec) != m.cols {
		panic(fmt.Sprintf("semipoly: vector length %d does not match %d columns", len(vec), m.cols))
	}
	out := make([]Expr, m.rows)
	for i := range out {
		out[i] = N(0)
	}
	for c, e := range m.cells {
		out[c.row] = AddOf(out[c.row], MulOf(e, vec[c.col]))
	}
	return out
}

func (m *SparseMatrix) String() string {
	keys := make([]cell, 0, len(m.cells))
	for c := range m.cells {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})
	parts := make([]string, len(keys))
	for i, c := range keys {
		parts[i] = fmt.Sprintf("(%d,%d): %s", c.row, c.col, m.cells[c].String())
	}
	return fmt.Sprintf("%dx%d{%s}", m.rows, m.cols, strings.Join(parts, ", "))
}

// ============================================================
// Form builders
// ============================================================

// SemiPolynomialForm splits expr into a dictionary from bounded-degree
// monomials over vars to coefficient expressions, plus a residual, such
// that sum(coeff*mono) + residual reconstructs expr. A negative degree
// is diagnosed and returns an empty dictionary with expr unchanged.
func SemiPolynomialForm(expr Expr, vars []*Sym, degree int, includeConsts bool) (*MonomialDict, Expr, error) {
	dicts, residuals, _, err := decompose([]Expr{expr}, vars, degree, includeConsts)
	if err != nil {
		return nil, nil, err
	}
	return dicts[0], residuals[0], nil
}

// SemiPolynomialForms is the vectorized variant; results are returned
// in input order, one (dictionary, residual) pair per expression.
func SemiPolynomialForms(exprs []Expr, vars []*Sym, degree int, includeConsts bool) ([]*MonomialDict, []Expr, error) {
	dicts, residuals, _, err := decompose(exprs, vars, degree, includeConsts)
	return dicts, residuals, err
}

// PolynomialCoeffs extracts all polynomial coefficients: the
// semi-polynomial form with an unbounded degree and constants included.
func PolynomialCoeffs(expr Expr, vars []*Sym) (*MonomialDict, Expr, error) {
	return SemiPolynomialForm(expr, vars, unboundedDegree, true)
}

func decompose(exprs []Expr, vars []*Sym, degree int, includeConsts bool) ([]*MonomialDict, []Expr, *VarSet, error) {
	vs, err := NewVarSet(vars...)
	if err != nil {
		return nil, nil, nil, err
	}
	dicts := make([]*MonomialDict, len(exprs))
	residuals := make([]Expr, len(exprs))
	if degree < 0 {
		ilog.Default().Warn("semipoly: negative degree bound, returning input unchanged",
			"degree", degree)
		for i, e := range exprs {
			dicts[i] = newMonomialDict()
			residuals[i] = e
		}
		return dicts, residuals, vs, nil
	}
	cfg := defaultMarkerConfig()
	for i, e := range exprs {
		marked := markVars(e, vs, cfg)
		terms := flattenTerms(normalizeMarked(marked, cfg))
		dicts[i], residuals[i] = bifurcateTerms(terms, vs, degree, includeConsts)
	}
	return dicts, residuals, vs, nil
}

// SemiLinearForm builds the sparse matrix A with rows per expression
// and columns per variable in caller order, plus a residual vector,
// such that A·vars + residual == exprs elementwise. Every dictionary
// key at degree 1 without constants is a single designated variable.
func SemiLinearForm(exprs []Expr, vars []*Sym) (*SparseMatrix, []Expr, error) {
	dicts, residuals, vs, err := decompose(exprs, vars, 1, false)
	if err != nil {
		return nil, nil, err
	}
	a := NewSparseMatrix(len(exprs), len(vars))
	for row, dict := range dicts {
		for _, mono := range dict.Monomials() {
			s, ok := mono.(*Sym)
			if !ok {
				return nil, nil, errors.Errorf("semipoly: internal: linear key %s is not a variable", mono)
			}
			col, _ := vs.IndexOf(s)
			coeff, _ := dict.Coeff(mono)
			a.Set(row, col, coeff)
		}
	}
	return a, residuals, nil
}

// SemiQuadraticForm builds A1 over the variables and A2 over the
// n(n+1)/2 unordered variable pairs, plus the dense monomial vector v2
// and a residual vector, such that A1·vars + A2·v2 + residual == exprs
// elementwise. A dictionary key of any shape other than a variable, a
// square, or a two-variable product is an internal invariant violation.
func SemiQuadraticForm(exprs []Expr, vars []*Sym) (*SparseMatrix, *SparseMatrix, []Expr, []Expr, error) {
	dicts, residuals, vs, err := decompose(exprs, vars, 2, false)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	n := len(vars)
	pairCols := n * (n + 1) / 2
	a1 := NewSparseMatrix(len(exprs), n)
	a2 := NewSparseMatrix(len(exprs), pairCols)
	v2 := make([]Expr, pairCols)
	for i := range v2 {
		v2[i] = N(0)
	}
	for row, dict := range dicts {
		for _, mono := range dict.Monomials() {
			coeff, _ := dict.Coeff(mono)
			total := totalDegree(mono)
			switch {
			case total.Cmp(ratInt(1)) == 0:
				s, ok := mono.(*Sym)
				if !ok {
					return nil, nil, nil, nil, errors.Errorf("semipoly: internal: degree-1 key %s is not a variable", mono)
				}
				col, _ := vs.IndexOf(s)
				a1.Set(row, col, coeff)
			case total.Cmp(ratInt(2)) == 0:
				p, q, perr := quadKeyIndices(mono, vs)
				if perr != nil {
					return nil, nil, nil, nil, perr
				}
				col := QuadColumn(p, q)
				a2.Set(row, col, coeff)
				v2[col] = mono
			default:
				return nil, nil, nil, nil, errors.Errorf("semipoly: internal: key %s has degree %s outside the quadratic range", mono, total.RatString())
			}
		}
	}
	return a1, a2, v2, residuals, nil
}

func ratInt(n int64) *big.Rat { return new(big.Rat).SetInt64(n) }

// quadKeyIndices decodes a degree-2 monomial key into its ordered
// variable index pair (p <= q): either a pure square var^2 or a product
// of two distinct variables. Anything else means the normalizer and the
// bifurcator disagree, which is not recoverable.
func quadKeyIndices(mono Expr, vs *VarSet) (int, int, error) {
	if pow, ok := mono.(*Pow); ok {
		s, sok := pow.base.(*Sym)
		if sok && isNumEqual(pow.exp, 2) {
			q, _ := vs.IndexOf(s)
			return q, q, nil
		}
	}
	if mul, ok := mono.(*Mul); ok && len(mul.factors) == 2 {
		s1, ok1 := mul.factors[0].(*Sym)
		s2, ok2 := mul.factors[1].(*Sym)
		if ok1 && ok2 {
			p, _ := vs.IndexOf(s1)
			q, _ := vs.IndexOf(s2)
			if p > q {
				p, q = q, p
			}
			return p, q, nil
		}
	}
	return 0, 0, errors.Errorf("semipoly: internal: malformed quadratic key %s", mono)
}

// QuadColumn encodes an unordered variable index pair (p <= q),
// including the degenerate square pair, into a single column of the
// n(n+1)/2-wide quadratic matrix via the triangular-number bijection.
func QuadColumn(p, q int) int {
	if p > q {
		p, q = q, p
	}
	return q*(q+1)/2 + p
}

// QuadPair inverts QuadColumn.
func QuadPair(col int) (int, int) {
	q := 0
	for (q+1)*(q+2)/2 <= col {
		q++
	}
	return col - q*(q+1)/2, q
}
