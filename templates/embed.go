// Package templates holds the HTML templates compiled into the binary.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
