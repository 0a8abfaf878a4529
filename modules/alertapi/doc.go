// Package alertapi exposes the engine over HTTP as a JSON API.
//
// All routes are scoped to the caller identified by the X-User-ID
// header; authentication itself is expected to happen upstream (gateway
// or middleware) and is out of scope here.
//
//	r := chi.NewRouter()
//	r.Mount("/api/v1", alertapi.Router(eng))
package alertapi
