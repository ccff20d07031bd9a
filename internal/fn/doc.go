// Package fn holds the function table formulas may call. The table is an
// allow-list: the parser rejects any call to a name the table does not
// carry, so a sheet can never reach code outside this package. Hosts can
// inject their own table to extend or restrict the set.
package fn
