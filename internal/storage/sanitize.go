package storage

import "github.com/microcosm-cc/bluemonday"

// filenamePolicy strips any markup from user-supplied filenames before
// they are persisted, since original_name is echoed back verbatim in
// listings and admin tooling that render it as HTML.
var filenamePolicy = bluemonday.StrictPolicy()

func sanitizeOriginalName(name string) string {
	return filenamePolicy.Sanitize(name)
}
