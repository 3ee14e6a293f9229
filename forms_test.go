package semipoly_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	semipoly "github.com/njchilds90/semipoly"
)

func varsVec(vars []*semipoly.Sym) []semipoly.Expr {
	out := make([]semipoly.Expr, len(vars))
	for i, v := range vars {
		out[i] = v
	}
	return out
}

func TestSemiLinearForm_Example(t *testing.T) {
	x, y := semipoly.S("x"), semipoly.S("y")
	vars := []*semipoly.Sym{x, y}
	exprs := []semipoly.Expr{
		semipoly.AddOf(x, semipoly.MulOf(semipoly.N(2), y)), // x + 2y
		semipoly.MulOf(semipoly.N(3), x),                    // 3x
	}

	a, residuals, err := semipoly.SemiLinearForm(exprs, vars)
	require.NoError(t, err)

	assert.Equal(t, 2, a.Rows())
	assert.Equal(t, 2, a.Cols())
	assert.True(t, semipoly.N(1).Equal(a.Get(0, 0)))
	assert.True(t, semipoly.N(2).Equal(a.Get(0, 1)))
	assert.True(t, semipoly.N(3).Equal(a.Get(1, 0)))
	assert.True(t, semipoly.N(0).Equal(a.Get(1, 1)))

	require.Len(t, residuals, 2)
	for i, r := range residuals {
		assert.True(t, semipoly.N(0).Equal(r), "residual %d should be zero, got %s", i, r)
	}
}

func TestSemiLinearForm_SymbolicCoefficients(t *testing.T) {
	x, y := semipoly.S("x"), semipoly.S("y")
	a := semipoly.S("a")
	// a*x + y: non-designated symbols stay in the coefficients.
	exprs := []semipoly.Expr{semipoly.AddOf(semipoly.MulOf(a, x), y)}

	mat, residuals, err := semipoly.SemiLinearForm(exprs, []*semipoly.Sym{x, y})
	require.NoError(t, err)
	assert.True(t, a.Equal(mat.Get(0, 0)))
	assert.True(t, semipoly.N(1).Equal(mat.Get(0, 1)))
	assert.True(t, semipoly.N(0).Equal(residuals[0]))
}

func TestSemiLinearForm_Identity(t *testing.T) {
	x, y := semipoly.S("x"), semipoly.S("y")
	vars := []*semipoly.Sym{x, y}
	exprs := []semipoly.Expr{
		semipoly.AddOf(x, semipoly.MulOf(semipoly.N(2), y), semipoly.SinOf(x)),
		semipoly.AddOf(semipoly.MulOf(semipoly.N(-3), x), semipoly.N(7)),
	}
	assign := map[string]*semipoly.Num{"x": semipoly.F(3, 2), "y": semipoly.F(-1, 4)}

	a, residuals, err := semipoly.SemiLinearForm(exprs, vars)
	require.NoError(t, err)

	products := a.MulVec(varsVec(vars))
	for i := range exprs {
		want := evalAt(t, exprs[i], assign)
		got := evalAt(t, semipoly.AddOf(products[i], residuals[i]), assign)
		assert.InDelta(t, want, got, 1e-9, "row %d", i)
	}
}

func TestSemiLinearForm_DuplicateVars(t *testing.T) {
	x := semipoly.S("x")
	_, _, err := semipoly.SemiLinearForm([]semipoly.Expr{x}, []*semipoly.Sym{x, semipoly.S("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestSemiQuadraticForm_Basic(t *testing.T) {
	x, y := semipoly.S("x"), semipoly.S("y")
	vars := []*semipoly.Sym{x, y}
	exprs := []semipoly.Expr{
		// x^2 + 4*x*y + y
		semipoly.AddOf(
			semipoly.PowOf(x, semipoly.N(2)),
			semipoly.MulOf(semipoly.N(4), x, y),
			y,
		),
		// x + y^2
		semipoly.AddOf(x, semipoly.PowOf(y, semipoly.N(2))),
	}

	a1, a2, v2, residuals, err := semipoly.SemiQuadraticForm(exprs, vars)
	require.NoError(t, err)

	assert.Equal(t, 2, a1.Cols())
	assert.Equal(t, 3, a2.Cols(), "two variables give n(n+1)/2 = 3 pair columns")

	// row 0: linear y, quadratic x^2 and x*y
	assert.True(t, semipoly.N(1).Equal(a1.Get(0, 1)))
	assert.True(t, semipoly.N(1).Equal(a2.Get(0, semipoly.QuadColumn(0, 0))))
	assert.True(t, semipoly.N(4).Equal(a2.Get(0, semipoly.QuadColumn(0, 1))))

	// row 1: linear x, quadratic y^2
	assert.True(t, semipoly.N(1).Equal(a1.Get(1, 0)))
	assert.True(t, semipoly.N(1).Equal(a2.Get(1, semipoly.QuadColumn(1, 1))))

	require.Len(t, v2, 3)
	assert.True(t, semipoly.PowOf(x, semipoly.N(2)).Equal(v2[semipoly.QuadColumn(0, 0)]))
	assert.True(t, semipoly.MulOf(x, y).Equal(v2[semipoly.QuadColumn(0, 1)]))
	assert.True(t, semipoly.PowOf(y, semipoly.N(2)).Equal(v2[semipoly.QuadColumn(1, 1)]))

	for i, r := range residuals {
		assert.True(t, semipoly.N(0).Equal(r), "residual %d should be zero, got %s", i, r)
	}
}

func TestSemiQuadraticForm_Identity(t *testing.T) {
	x, y := semipoly.S("x"), semipoly.S("y")
	vars := []*semipoly.Sym{x, y}
	exprs := []semipoly.Expr{
		semipoly.AddOf(
			semipoly.MulOf(semipoly.N(2), semipoly.PowOf(x, semipoly.N(2))),
			semipoly.MulOf(semipoly.N(-1), x, y),
			semipoly.MulOf(semipoly.N(5), y),
			semipoly.CosOf(y),
		),
		semipoly.AddOf(semipoly.PowOf(y, semipoly.N(2)), semipoly.N(3)),
	}
	assign := map[string]*semipoly.Num{"x": semipoly.F(1, 2), "y": semipoly.F(4, 3)}

	a1, a2, v2, residuals, err := semipoly.SemiQuadraticForm(exprs, vars)
	require.NoError(t, err)

	lin := a1.MulVec(varsVec(vars))
	quad := a2.MulVec(v2)
	for i := range exprs {
		want := evalAt(t, exprs[i], assign)
		got := evalAt(t, semipoly.AddOf(lin[i], quad[i], residuals[i]), assign)
		assert.InDelta(t, want, got, 1e-9, "row %d", i)
	}
}

func TestSemiQuadraticForm_CubicResidual(t *testing.T) {
	x := semipoly.S("x")
	exprs := []semipoly.Expr{
		semipoly.AddOf(semipoly.PowOf(x, semipoly.N(3)), semipoly.PowOf(x, semipoly.N(2))),
	}

	a1, a2, _, residuals, err := semipoly.SemiQuadraticForm(exprs, []*semipoly.Sym{x})
	require.NoError(t, err)
	assert.Equal(t, 0, a1.NonZero())
	assert.True(t, semipoly.N(1).Equal(a2.Get(0, 0)))
	assert.True(t, semipoly.PowOf(x, semipoly.N(3)).Equal(residuals[0]),
		"x^3 belongs in the residual, got %s", residuals[0])
}

func TestQuadColumn_Invertible(t *testing.T) {
	// Every ordered pair p <= q maps to a distinct column and back.
	seen := map[int]bool{}
	n := 5
	for q := 0; q < n; q++ {
		for p := 0; p <= q; p++ {
			col := semipoly.QuadColumn(p, q)
			assert.False(t, seen[col], "column %d assigned twice", col)
			seen[col] = true
			gp, gq := semipoly.QuadPair(col)
			assert.Equal(t, p, gp)
			assert.Equal(t, q, gq)
		}
	}
	assert.Len(t, seen, n*(n+1)/2)
}

func TestQuadColumn_OrderInsensitive(t *testing.T) {
	assert.Equal(t, semipoly.QuadColumn(0, 2), semipoly.QuadColumn(2, 0))
}

func TestSparseMatrix_Basics(t *testing.T) {
	m := semipoly.NewSparseMatrix(2, 3)
	assert.True(t, semipoly.N(0).Equal(m.Get(1, 2)), "absent cells read as zero")

	m.Set(0, 1, semipoly.S("a"))
	assert.Equal(t, 1, m.NonZero())
	assert.True(t, semipoly.S("a").Equal(m.Get(0, 1)))

	// Setting an explicit zero clears the cell.
	m.Set(0, 1, semipoly.N(0))
	assert.Equal(t, 0, m.NonZero())
}

func TestSparseMatrix_BoundsPanic(t *testing.T) {
	m := semipoly.NewSparseMatrix(2, 2)
	assert.Panics(t, func() { m.Get(2, 0) })
	assert.Panics(t, func() { m.Set(0, -1, semipoly.N(1)) })
	assert.Panics(t, func() { m.MulVec([]semipoly.Expr{semipoly.N(1)}) })
}
