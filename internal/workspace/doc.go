// Package workspace manages the scratch directory a build run uses for
// compiler output files.
//
// Each run gets its own timestamped directory (e.g. stylebuilder-20251214-122336-1234)
// under a base directory. Compiler outputs are normally removed as soon as
// they are read; Cleanup removes whatever a killed or interrupted compiler
// left behind.
package workspace
