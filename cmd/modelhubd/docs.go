package main

// General API documentation for swaggo. Run `swag init` to regenerate docs
// (only consumed when built with -tags=swagger).
//
// @title           modelhub API
// @version         1.0
// @description     Optional HTTP observability facade over an in-process model runtime.
//
// @contact.name   modelhub maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
