// Package epg implements the extended phase graph state store and its
// operator library. It never imports app, output, cli, or dispatcher;
// keep it domain-only.
//
// The state Ω is a (3, orders, partitions) complex tensor: row 0 holds F+
// (transverse, positive dephasing order), row 1 holds F̄₋ (the value whose
// conjugate is the physical F− state), row 2 holds Z (longitudinal). All
// operators mutate Ω in place, allocate nothing, and assume exclusive
// ownership: one Ω per voxel, never shared.
package epg
