// Package satstate defines the persistent record kept by a satellite flight
// controller across reboots, watchdog resets, and single-event upsets: the
// data model (PersistentState and its fields), the fixed NV address map, and
// the field codec that serialises each field to/from its on-device byte
// layout.
//
// It also holds the Coordinator (C5), which reads and writes this record
// under bus_cache_lock, and the timebase (C6) behind it. The Coordinator
// drives the quadruple-copy NV RAID voter, the triple-modular RAM redundancy
// voter, and the error-log persistor, which live in the sibling packages
// raid, tmr, and errorlog.
package satstate
