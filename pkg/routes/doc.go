// Package routes holds the route table served by cannedmock.
//
// A route table maps request paths to literal response bodies. It is read
// from a JSON object (or a YAML mapping for .yaml/.yml files) once at
// startup and never changes afterwards, so a *Table can be shared by any
// number of request goroutines without locking:
//
//	{
//	    "/status": "ok",
//	    "/api/v1/users": "[{\"id\": 1}]"
//	}
//
// Loading is strict. Values must be strings, keys must be unique absolute
// paths, and the echo path is reserved. Every failure wraps one of the
// package's sentinel errors.
package routes
