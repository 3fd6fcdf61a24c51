// Package equations provides right-hand sides f(x, y) with known solutions.
//
// Each equation implements [dynamo.Derivative], [dynamo.Series] (for Taylor
// starters and step-size search) and [dynamo.Solution] (for error metrics):
//
//   - [XPlusY]: y' = x + y
//   - [XSquaredPlusY]: y' = x^2 + y
//   - [XMinusY]: y' = x - y
//
// The closed form depends on the initial condition, set with SetInitial.
package equations
