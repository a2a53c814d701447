// Package qrange stores values under half-open ranges [low, high) and answers
// point queries with every value whose range contains the point.
//
// Records are append-only. Ranges may overlap freely, and a query returns
// matches in the order they were inserted:
//
//	0  1  2  3  4  5
//	[A      )
//	      [D   )
//	       ^  ^     ^
//	     2.5 3.5    5
//
// Query(2.5) yields [A D], Query(3.5) yields [D] and Query(5) fails with
// [ErrNotFound].
//
// Two backends implement [Store]: [Linear] scans every record and [Tree]
// keeps an augmented AVL tree so queries cost O(log n + k log k).
package qrange
