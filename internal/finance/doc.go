// Package finance is the pure core of the finance backend: it aggregates a
// user's line items into monthly totals and ranks those totals against US
// population reference tables.
//
// Nothing in this package performs I/O, logs, or keeps state between calls.
// All amounts fed to the percentile functions are assumed to be USD; currency
// conversion happens in the service layer before values reach this package.
package finance
