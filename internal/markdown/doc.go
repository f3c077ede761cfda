// Package markdown discovers catalog documents on disk, writes them back only
// when their content changed, and renders HTML previews through goldmark.
// Previews never feed back into the catalog.
package markdown
