// Package dispatcher fans the per-voxel simulation entry point across
// execution modes: a sequential loop, a data-parallel worker pool, and a
// chunked variant that partitions the voxel array into contiguous blocks.
//
// Every voxel gets a private state tensor for its whole lifetime, so the
// core needs no locks; the only overlapping writes are the additive signal
// reductions, which the dispatcher owns and performs once per run after all
// workers finish.
package dispatcher
