//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger is a no-op by default. Build with -tags=swagger to enable
// the generated swagger UI.
func MountSwagger(r chi.Router) {}
