// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers and the projection
// fixtures used across the mesh, storage and monitor tests.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertNear checks that got is within tol of want.
func AssertNear(t testing.TB, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("got %g, want %g (±%g)", got, want, tol)
	}
}
