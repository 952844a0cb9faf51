// Package sanitize neutralises markup in user supplied text.
package sanitize

import "html"

// Text replaces each non-nil value with its HTML-escaped form.
func Text(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = html.EscapeString(*f)
		}
	}
}
