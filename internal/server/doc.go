// Package server provides the HTTP routing, middleware and health handler that run next to the poller.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [LoggingMiddleware] and [RecoverMiddleware] are the two the health router installs.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Health Endpoint
//
// [HealthHandler] serves two routes while `nixflix --poll N --listen addr` is running:
//   - GET /health reports uptime, attempt counters and the last outcome held by [Status]
//   - GET /runs/latest returns the newest entry of the sqlite run journal
//
// [Status.Observe] is installed as the poller's result callback. The handler only reads it.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
