// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing knowledge bases and routers. These helpers are
// not intended for production usage.
package testutil
