// Package web embeds the dashboard templates and static files into the binary.
package web

import "embed"

// TemplatesFS holds the page and its fragments.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the small htmx glue script.
//
//go:embed static/*
var StaticFS embed.FS
