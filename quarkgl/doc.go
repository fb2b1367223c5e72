// Package quarkgl provides a small scene graph and a predictable software 3D renderer.
//
// A Scene owns a tree of Nodes. Each Node carries a local transform (position,
// orientation, scale) and optionally a Mesh. Nodes are mutated in place: callers
// that drive nodes from a simulation call SetTransform once per frame and then
// render.
//
// Pipeline (fixed):
//
//	Scene graph → World transform → View/Projection → Clipping → Rasterization → Target.
//
// The renderer draws into a caller-provided Target and does not allocate in the
// render hot path once its depth buffer is sized. Math uses mathgl's mgl32 types
// (column-major matrices, OpenGL conventions).
package quarkgl
