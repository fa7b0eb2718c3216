// Package cli implements the cannedmock command line.
//
// The root command takes five positional arguments and serves the route
// table until the process receives SIGINT or SIGTERM:
//
//	cannedmock <config_path> <tls_key_path> <tls_cert_path> <plain_port> <tls_port>
//
// Subcommands cover the test harness around it: stop terminates the process
// recorded in the PID file, gencert writes a self-signed key/certificate
// pair, and version prints build information.
package cli
