//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "modelhub/docs"
)

// MountSwagger mounts the swagger UI at /swagger/*, serving the spec
// generated by `swag init` into the docs package. Build with -tags=swagger.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
