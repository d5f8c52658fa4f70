// Package prelude embeds the JavaScript fixtures every processor
// invocation is wrapped in or may fall back to, the Go analogue of
// fh-v8's fh_prelude.js/fh_sequel.js pair.
package prelude

import _ "embed"

//go:embed fh_prelude.js
var Prelude string

//go:embed fh_sequel.js
var Sequel string

//go:embed default_processor.js
var DefaultProcessorSource string

// Wrap brackets source between the prelude and sequel, reproducing
// fh-v8's prepare_user_code(wrap_prelude=true): the prelude defines the
// synchronous-looking op shims and opens an async IIFE that the sequel
// closes.
func Wrap(source string) string {
	return Prelude + "\n" + source + "\n" + Sequel
}
