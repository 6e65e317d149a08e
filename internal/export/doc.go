// Package export runs the external voiceforge CLI to render a stored session
// as Markdown or PDF.
//
// The format is validated locally before anything is spawned. A non-zero exit
// becomes an error whose message is the tool's stderr text; a successful run
// yields the trimmed stdout, which is the path of the written file.
package export
