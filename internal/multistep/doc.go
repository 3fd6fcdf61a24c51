// Package multistep implements Milne's predictor-corrector method and the
// step-halving refinement that restarts it at a finer resolution.
//
// Milne's method reads the four most recent samples of a [history.Window]:
//
//	predictor  y_p = y_{n-3} + (4h/3)(2y'_{n-2} - y'_{n-1} + 2y'_n)
//	corrector  y_c = y_{n-1} + (h/3)(y'_{n-1} + 4y'_n + f(x_{n+1}, y_p))
//
// and reports D = y_c - y_p as the local error estimate. A single correction
// is applied per step; the corrector is never iterated.
//
// When |D| grows too large, [Refine] halves h and synthesises the two
// missing midpoints by four-point interpolation so that stepping can resume
// from a full window at h/2.
package multistep
