package main

// General API documentation for swaggo. Run `swag init -g cmd/inferd/main.go`
// to regenerate docs/ after changing handler annotations.
//
// @title           inferd API
// @version         1.0
// @description     HTTP API for serialized local LLM inference with an idle-evicting model cache.
//
// @contact.name   inferd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
