// Package routes declares HTTP route groups and registers them on a ServeMux.
package routes

import "net/http"

// Route binds a method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
