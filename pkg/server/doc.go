// Package server serves a route table over plain HTTP and HTTPS.
//
// One handler set is built from the route table and attached to two
// http.Servers:
//
//	GET <path>   200 with the configured body, for every route
//	POST /echo   200 mirroring the request headers and body
//	anything     404, or 405 when the path exists with other methods
//
// Request bodies larger than Config.MaxBodySize are answered with 413
// before any route handler runs.
//
// Typical use:
//
//	srv := server.New(server.Config{
//	    Routes:    table,
//	    PlainPort: 8080,
//	    TLSPort:   8443,
//	    KeyFile:   "server.key",
//	    CertFile:  "server.crt",
//	    PIDFile:   pidfile.DefaultPath(),
//	}, server.WithLogger(logger))
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	return srv.Wait()
package server
