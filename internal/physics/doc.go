// Package physics provides the force laws that drive propagation.
//
// A [ForceLaw] turns a composite world snapshot into the net force acting on
// one agent. [Gravity] is the pairwise gravitational sum:
//
//   - [LawReference]: magnitude G*m1*m2/d*d, the historical formula
//   - [LawInverseSquare]: magnitude G*m1*m2/(d*d)
//
// Conserved quantities ([Gravity.Energy], [Momentum], [AngularMomentum]) are
// exposed so metrics can monitor drift across a run.
package physics
