package httpserver

import "time"

// ShutdownTimeout bounds how long in-flight requests may run after a
// shutdown signal.
var ShutdownTimeout = 10 * time.Second
