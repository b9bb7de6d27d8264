// Package featuregrid owns the data model for the spike feature-matrix view.
//
// Responsibilities: resolving a grid of dimension pairs from a requested
// dimension list, projecting the (spikes, channels, features) tensor into
// per-box 2-D point clouds, baking flat renderer-ready buffers, and deriving
// pan/zoom axis constraints for time-locked boxes.
// Key types: Dimension, DimensionsMatrix, FeatureTensor, BakedBuffers,
// ConstraintTable, Controller.
//
// Rendering, pan/zoom mechanics, and overlays live behind the Renderer,
// PanZoomService and LassoOverlay interfaces; this package never touches a
// window, a GPU program, or the event loop.
package featuregrid
