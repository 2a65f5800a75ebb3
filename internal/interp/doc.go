// Package interp holds the local interpolation kernels used by the projection
// mesh.
//
// Every kernel is fitted from a small neighbourhood of exact samples (4 or 16
// grid nodes) and then evaluated at a query position. Separable kernels fit one
// scalar output per instance, so the mesh runs two independently fitted
// instances per query (one per destination axis). The bundled kernel fits both
// outputs at once.
//
// The set of kernels is closed; select one with a Kind.
package interp
