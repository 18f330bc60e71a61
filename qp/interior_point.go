package qp

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
)

const solverName = "interior-point"

const (
	defaultMaxIterations = 100
	defaultAbsTol        = 1e-7
	defaultRelTol        = 1e-6
	defaultFeasTol       = 1e-7

	// Iterates beyond this magnitude are taken as a certificate of infeasibility.
	divergenceLimit = 1e10
	stepScale       = 0.99
)

// InteriorPoint is a primal-dual interior point solver with Mehrotra
// predictor-corrector steps. The reduced KKT system is factored once per
// iteration and shared by both steps.
type InteriorPoint struct {
	maxIterations int
	absTol        float64
	relTol        float64
	feasTol       float64
	logger        log.Logger
}

var _ Solver = (*InteriorPoint)(nil)

// Option configures an InteriorPoint solver.
type Option func(*InteriorPoint)

// WithMaxIterations sets the iteration limit.
func WithMaxIterations(n int) Option {
	return func(s *InteriorPoint) {
		s.maxIterations = n
	}
}

// WithAbsTol sets the absolute duality gap tolerance.
func WithAbsTol(tol float64) Option {
	return func(s *InteriorPoint) {
		s.absTol = tol
	}
}

// WithRelTol sets the relative duality gap tolerance.
func WithRelTol(tol float64) Option {
	return func(s *InteriorPoint) {
		s.relTol = tol
	}
}

// WithFeasTol sets the primal and dual residual tolerance.
func WithFeasTol(tol float64) Option {
	return func(s *InteriorPoint) {
		s.feasTol = tol
	}
}

// WithLogger sets the logger used for iteration progress.
func WithLogger(l log.Logger) Option {
	return func(s *InteriorPoint) {
		s.logger = l
	}
}

// NewInteriorPoint creates a solver with the default tolerances.
func NewInteriorPoint(opts ...Option) *InteriorPoint {
	s := &InteriorPoint{
		maxIterations: defaultMaxIterations,
		absTol:        defaultAbsTol,
		relTol:        defaultRelTol,
		feasTol:       defaultFeasTol,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("qp")
	}
	return s
}

// Solve implements Solver. A non-optimal status is returned together with a
// SolverError that is marked ErrInfeasibleConstraints for infeasible problems
// and ErrSolverFailed otherwise.
func (s *InteriorPoint) Solve(p *Problem) (sol *Solution, err error) {
	defer mlerrors.Recover(&err, "qp.Solve")

	n, m, k, err := p.dims()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	w := newWorkspace(p, n, m, k)
	if m == 0 {
		sol, err = w.solveEqualityOnly()
	} else {
		sol, err = s.iterate(w)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("qp solve finished",
		log.QPStatusKey, sol.Status.String(),
		log.QPIterationsKey, sol.Iterations,
		log.QPGapKey, sol.Gap,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	if sol.Status != Optimal {
		err := mlerrors.NewSolverError(solverName, sol.Status.String(), sol.Iterations, sol.Status.Infeasible())
		s.logger.Warn("qp solve did not reach optimality", err,
			log.QPStatusKey, sol.Status.String(),
			log.QPIterationsKey, sol.Iterations,
		)
		return sol, err
	}
	return sol, nil
}

// workspace holds the problem data in the form the iteration needs.
type workspace struct {
	n, m, k int

	P *mat.Dense
	q []float64
	G operator
	h []float64
	A operator
	b []float64

	// Aᵀ as a dense n × k matrix.
	at *mat.Dense

	// Reduced system K = P + GᵀWG. With K positive definite the equality
	// block is handled through the Schur complement A K⁻¹ Aᵀ; otherwise the
	// full KKT matrix is LU factored.
	kred  *mat.Dense
	chol  mat.Cholesky
	ut    mat.Dense
	schur mat.Cholesky
	useLU bool
	kkt   *mat.Dense
	lu    mat.LU

	resx float64
	resy float64
	resz float64
}

func newWorkspace(p *Problem, n, m, k int) *workspace {
	w := &workspace{
		n:    n,
		m:    m,
		k:    k,
		P:    mat.NewDense(n, n, nil),
		q:    vecData(p.Q, n),
		h:    vecData(p.H, m),
		b:    vecData(p.B, k),
		G:    asOperator(p.G),
		A:    asOperator(p.A),
		kred: mat.NewDense(n, n, nil),
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := p.P.At(i, j)
			w.P.Set(i, j, v)
			w.P.Set(j, i, v)
		}
	}
	if k > 0 {
		w.at = mat.NewDense(n, k, nil)
		col := make([]float64, n)
		unit := make([]float64, k)
		for i := 0; i < k; i++ {
			unit[i] = 1
			w.A.MulTransVec(col, unit)
			unit[i] = 0
			w.at.SetCol(i, col)
		}
	}
	w.resx = math.Max(1, floats.Norm(w.q, 2))
	w.resy = math.Max(1, norm(w.b))
	w.resz = math.Max(1, norm(w.h))
	return w
}

func norm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2)
}

// conditionOnly reports whether err is nil or only an ill-conditioning warning.
func conditionOnly(err error) bool {
	if err == nil {
		return true
	}
	_, ok := err.(mat.Condition)
	return ok
}

// factor prepares the reduced KKT system for the inequality weights.
// weights may be nil when there are no inequalities.
func (w *workspace) factor(weights []float64) error {
	w.kred.Copy(w.P)
	if w.G != nil {
		w.G.ScaledGram(w.kred, weights)
	}

	w.useLU = !w.chol.Factorize(mat.NewSymDense(w.n, w.kred.RawMatrix().Data))
	if !w.useLU && w.k > 0 {
		if err := w.chol.SolveTo(&w.ut, w.at); !conditionOnly(err) {
			w.useLU = true
		} else {
			var s mat.Dense
			s.Mul(w.at.T(), &w.ut)
			sym := mat.NewSymDense(w.k, nil)
			for i := 0; i < w.k; i++ {
				for j := i; j < w.k; j++ {
					sym.SetSym(i, j, 0.5*(s.At(i, j)+s.At(j, i)))
				}
			}
			w.useLU = !w.schur.Factorize(sym)
		}
	}
	if !w.useLU {
		return nil
	}

	if w.kkt == nil {
		w.kkt = mat.NewDense(w.n+w.k, w.n+w.k, nil)
	}
	w.kkt.Zero()
	w.kkt.Slice(0, w.n, 0, w.n).(*mat.Dense).Copy(w.kred)
	if w.k > 0 {
		w.kkt.Slice(0, w.n, w.n, w.n+w.k).(*mat.Dense).Copy(w.at)
		w.kkt.Slice(w.n, w.n+w.k, 0, w.n).(*mat.Dense).Copy(w.at.T())
	}
	w.lu.Factorize(w.kkt)
	if math.IsInf(w.lu.Cond(), 1) {
		return mat.ErrSingular
	}
	return nil
}

// solveKKT solves [[K, Aᵀ], [A, 0]] [dx; dy] = rhs, overwriting rhs.
func (w *workspace) solveKKT(rhs []float64) error {
	n, k := w.n, w.k
	if w.useLU {
		var out mat.VecDense
		if err := w.lu.SolveVecTo(&out, false, mat.NewVecDense(n+k, rhs)); !conditionOnly(err) {
			return err
		}
		copy(rhs, out.RawVector().Data)
	} else {
		var u mat.VecDense
		if err := w.chol.SolveVecTo(&u, mat.NewVecDense(n, rhs[:n])); !conditionOnly(err) {
			return err
		}
		if k > 0 {
			au := make([]float64, k)
			w.A.MulVec(au, u.RawVector().Data)
			floats.Sub(au, rhs[n:])
			var dy mat.VecDense
			if err := w.schur.SolveVecTo(&dy, mat.NewVecDense(k, au)); !conditionOnly(err) {
				return err
			}
			var corr mat.VecDense
			corr.MulVec(&w.ut, &dy)
			u.SubVec(&u, &corr)
			copy(rhs[n:], dy.RawVector().Data)
		}
		copy(rhs[:n], u.RawVector().Data)
	}
	return mlerrors.CheckNumericalStability("qp.kkt", rhs, 0)
}

func (w *workspace) solveEqualityOnly() (*Solution, error) {
	if err := w.factor(nil); err != nil {
		return &Solution{Status: NumericalError}, mlerrors.NewSolverError(solverName, NumericalError.String(), 0, false)
	}
	rhs := make([]float64, w.n+w.k)
	for i, v := range w.q {
		rhs[i] = -v
	}
	copy(rhs[w.n:], w.b)
	if err := w.solveKKT(rhs); err != nil {
		return &Solution{Status: NumericalError}, mlerrors.NewSolverError(solverName, NumericalError.String(), 0, false)
	}
	x := append([]float64(nil), rhs[:w.n]...)
	obj := w.objective(x)
	return &Solution{
		Status:          Optimal,
		X:               mat.NewVecDense(w.n, x),
		Y:               append([]float64(nil), rhs[w.n:]...),
		PrimalObjective: obj,
		DualObjective:   obj,
	}, nil
}

func (w *workspace) objective(x []float64) float64 {
	px := make([]float64, w.n)
	mat.NewVecDense(w.n, px).MulVec(w.P, mat.NewVecDense(w.n, x))
	return 0.5*floats.Dot(x, px) + floats.Dot(w.q, x)
}

func (s *InteriorPoint) iterate(w *workspace) (*Solution, error) {
	n, m, k := w.n, w.m, w.k

	x := make([]float64, n)
	y := make([]float64, k)
	sl := make([]float64, m)
	z := make([]float64, m)

	// Initial point: minimize ½xᵀPx + qᵀx + ½‖s‖² subject to Gx + s = h, Ax = b.
	ones := make([]float64, m)
	for i := range ones {
		ones[i] = 1
	}
	if err := w.factor(ones); err != nil {
		return &Solution{Status: NumericalError}, nil
	}
	rhs := make([]float64, n+k)
	w.G.MulTransVec(rhs[:n], w.h)
	floats.Sub(rhs[:n], w.q)
	copy(rhs[n:], w.b)
	if err := w.solveKKT(rhs); err != nil {
		return &Solution{Status: NumericalError}, nil
	}
	copy(x, rhs[:n])
	copy(y, rhs[n:])

	gx := make([]float64, m)
	w.G.MulVec(gx, x)
	for i := range sl {
		sl[i] = w.h[i] - gx[i]
		z[i] = gx[i] - w.h[i]
	}
	shiftPositive(sl)
	shiftPositive(z)

	var (
		rd    = make([]float64, n)
		rp    = make([]float64, k)
		ri    = make([]float64, m)
		tmpN  = make([]float64, n)
		wts   = make([]float64, m)
		rc    = make([]float64, m)
		dx    = make([]float64, n)
		dy    = make([]float64, k)
		ds    = make([]float64, m)
		dz    = make([]float64, m)
		dsAff = make([]float64, m)
		dzAff = make([]float64, m)
		sol   = &Solution{}
	)

	for iter := 0; ; iter++ {
		// Residuals.
		mat.NewVecDense(n, rd).MulVec(w.P, mat.NewVecDense(n, x))
		floats.Add(rd, w.q)
		pcost := 0.5*floats.Dot(x, rd) + 0.5*floats.Dot(w.q, x)
		if k > 0 {
			w.A.MulTransVec(tmpN, y)
			floats.Add(rd, tmpN)
			w.A.MulVec(rp, x)
			floats.Sub(rp, w.b)
		}
		w.G.MulTransVec(tmpN, z)
		floats.Add(rd, tmpN)
		w.G.MulVec(ri, x)
		floats.Add(ri, sl)
		floats.Sub(ri, w.h)

		gap := floats.Dot(sl, z)
		mu := gap / float64(m)
		dcost := pcost + floats.Dot(y, rp) + floats.Dot(z, ri) - gap
		relgap := math.Inf(1)
		switch {
		case pcost < 0:
			relgap = gap / -pcost
		case dcost > 0:
			relgap = gap / dcost
		}
		pres := math.Max(norm(rp)/w.resy, floats.Norm(ri, 2)/w.resz)
		dres := floats.Norm(rd, 2) / w.resx

		sol.Iterations = iter
		sol.PrimalObjective = pcost
		sol.DualObjective = dcost
		sol.Gap = gap
		sol.PrimalResidual = pres
		sol.DualResidual = dres

		if s.logger.Enabled(context.Background(), log.LevelDebug) {
			s.logger.Debug("qp iteration",
				log.IterationKey, iter,
				"pcost", pcost,
				"dcost", dcost,
				log.QPGapKey, gap,
				"pres", pres,
				"dres", dres,
			)
		}

		if mlerrors.CheckNumericalStability("qp.x", x, iter) != nil ||
			mlerrors.CheckNumericalStability("qp.z", z, iter) != nil ||
			mlerrors.CheckScalar("qp.gap", gap, iter) != nil {
			sol.Status = NumericalError
			break
		}
		if pres <= s.feasTol && dres <= s.feasTol && (gap <= s.absTol || relgap <= s.relTol) {
			sol.Status = Optimal
			break
		}
		if pres > s.feasTol && floats.Norm(z, math.Inf(1)) > divergenceLimit {
			sol.Status = PrimalInfeasible
			break
		}
		if dres > s.feasTol && floats.Norm(x, math.Inf(1)) > divergenceLimit {
			sol.Status = DualInfeasible
			break
		}
		if iter >= s.maxIterations {
			sol.Status = MaxIterations
			break
		}

		for i := range wts {
			wts[i] = z[i] / sl[i]
		}
		if err := w.factor(wts); err != nil {
			sol.Status = NumericalError
			break
		}

		// Predictor.
		for i := range rc {
			rc[i] = -sl[i] * z[i]
		}
		if err := w.newton(sl, z, rd, rp, ri, rc, dx, dy, dsAff, dzAff); err != nil {
			sol.Status = NumericalError
			break
		}
		alpha := math.Min(1, maxStep(sl, dsAff, z, dzAff))
		var muAff float64
		for i := range sl {
			muAff += (sl[i] + alpha*dsAff[i]) * (z[i] + alpha*dzAff[i])
		}
		muAff /= float64(m)
		sigma := math.Pow(muAff/mu, 3)

		// Corrector.
		for i := range rc {
			rc[i] = -sl[i]*z[i] + sigma*mu - dsAff[i]*dzAff[i]
		}
		if err := w.newton(sl, z, rd, rp, ri, rc, dx, dy, ds, dz); err != nil {
			sol.Status = NumericalError
			break
		}
		alpha = math.Min(1, stepScale*maxStep(sl, ds, z, dz))

		floats.AddScaled(x, alpha, dx)
		floats.AddScaled(y, alpha, dy)
		floats.AddScaled(sl, alpha, ds)
		floats.AddScaled(z, alpha, dz)
	}

	sol.X = mat.NewVecDense(n, x)
	sol.Y = y
	sol.Z = z
	sol.S = sl
	return sol, nil
}

// newton solves the linearized KKT conditions for the direction
// (dx, dy, ds, dz) given the complementarity target rc:
//
//	P dx + Aᵀdy + Gᵀdz = -rd
//	A dx             = -rp
//	G dx + ds        = -ri
//	z∘ds + s∘dz      = rc
//
// ds and dz are eliminated so only the factored reduced system is solved.
func (w *workspace) newton(sl, z, rd, rp, ri, rc, dx, dy, ds, dz []float64) error {
	n := w.n
	t := make([]float64, w.m)
	for i := range t {
		t[i] = (rc[i] + z[i]*ri[i]) / sl[i]
	}
	rhs := make([]float64, n+w.k)
	w.G.MulTransVec(rhs[:n], t)
	for i := 0; i < n; i++ {
		rhs[i] = -rd[i] - rhs[i]
	}
	for i := 0; i < w.k; i++ {
		rhs[n+i] = -rp[i]
	}
	if err := w.solveKKT(rhs); err != nil {
		return err
	}
	copy(dx, rhs[:n])
	copy(dy, rhs[n:])

	w.G.MulVec(ds, dx)
	for i := range ds {
		ds[i] = -ri[i] - ds[i]
		dz[i] = (rc[i] - z[i]*ds[i]) / sl[i]
	}
	return nil
}

// maxStep returns the largest step keeping s + α ds and z + α dz nonnegative.
func maxStep(s, ds, z, dz []float64) float64 {
	alpha := math.Inf(1)
	for i := range s {
		if ds[i] < 0 {
			alpha = math.Min(alpha, -s[i]/ds[i])
		}
		if dz[i] < 0 {
			alpha = math.Min(alpha, -z[i]/dz[i])
		}
	}
	return alpha
}

// shiftPositive moves v into the strictly positive orthant when its minimum
// is not positive.
func shiftPositive(v []float64) {
	if lo := floats.Min(v); lo <= 0 {
		floats.AddConst(1-lo, v)
	}
}
