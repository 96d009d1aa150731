// Package framework contains the per-case bookkeeping used while comparing captured test
// results against their expectations.
//
// It has a notion of a test context which is similar to Go's *testing.T: each case runs inside
// its own Context, reports failed expectations with Errorf, and can attach debug output that
// is only shown when the TestLogger decides it is interesting. Results accumulate in run order.
package framework
