// Package config loads clock definitions from YAML files.
//
// A definition names the clock, fixes the partition order, and declares
// partitions and pulses. Pulse conditions are written as recursive trees:
//
//	order: least_significant_first
//	partitions:
//	  - {name: sec, modulus: 60}
//	  - {name: min, modulus: 60}
//	pulses:
//	  - name: tock
//	    every: 3
//	  - name: top-of-minute
//	    when:
//	      all:
//	        - {partition: sec, equals: 0}
//
// Raw documents are validated against an embedded CUE schema before
// decoding, so malformed shapes are rejected with schema errors rather than
// half-decoded structs. Partition and pulse names are NFC-normalized so
// that visually identical names cannot denote distinct partitions.
//
// Numeric invariants that depend on cross-references (unknown partition
// names, inverted ranges) are left to the clock builder, which remains the
// single validation gate.
package config
