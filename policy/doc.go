// Package policy maps beliefs to team assignments.
//
// A Scorer turns the belief means M and variances V into a score matrix S:
//
//	Greedy     S = M
//	UCB(β)     S = (M + β·V) / 2
//	Thompson   S = (M + V∘Z) / 2,  Z[i,j] ~ N(0, 1) independent
//
// A ScoreActor feeds S to an assign.Optimizer; a RandomActor ignores the
// beliefs and returns assign.RandomAssignment. Both implement Actor, so the
// experiment loop cannot tell them apart.
package policy
