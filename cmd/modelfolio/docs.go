package main

// General API documentation for swaggo. Run `swag init -g cmd/modelfolio/docs.go` to regenerate docs/.
//
// @title           modelfolio API
// @version         1.0
// @description     Model portfolio listings and hosted inference demos.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
