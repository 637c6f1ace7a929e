// Package strata provides the public API for embedding the request
// pipeline. This is the stable surface for external consumers.
package strata

import (
	"github.com/strataweb/strata/internal/runtime"
)

// App is the assembled pipeline application.
// See internal/runtime.App for full documentation.
type App = runtime.App

// Option is a functional option for assembling an App.
type Option = runtime.Option

// New builds an App with the given options.
// Example:
//
//	app, err := strata.New(
//	    strata.WithConfigFile("config.yaml"),
//	    strata.WithSQLite("./data/strata.db"),
//	    strata.WithRoute("GET", "/users/{id}", getUser),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithConfig     = runtime.WithConfig
	WithConfigFile = runtime.WithConfigFile

	// Pipeline assembly
	WithStage        = runtime.WithStage
	WithInterceptor  = runtime.WithInterceptor
	WithRoute        = runtime.WithRoute
	WithWebhookStage = runtime.WithWebhookStage

	// Storage
	WithSQLite = runtime.WithSQLite
	WithStore  = runtime.WithStore

	// Advanced options
	WithLogger     = runtime.WithLogger
	WithNegotiator = runtime.WithNegotiator
)
