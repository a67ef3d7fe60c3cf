// Package plan parses staged parameter configurations.
//
// A plan document carries the initial model parameters, a chronology
// of sparse parameter changes keyed by year and month, and optional
// intervention programs with activity windows. Parsing validates the
// envelope structure and every embedded parameter set in a single
// pass, reporting all violations together with their full paths, then
// folds the changes into a sequence of complete parameter instances
// ready to drive consecutive runs.
package plan
