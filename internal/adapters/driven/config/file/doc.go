// Package file loads docgraph configuration from a TOML file.
//
// The file holds engine settings and the collection definitions to ingest.
// Parent-dependent collections use a text/template over the parent document:
//
//	[[collections]]
//	path = "users"
//	slug = "name"
//	watch = true
//
//	  [[collections.children]]
//	  path_template = "{{ .Parent.Path }}/posts"
//	  slug = "$.meta.title"
//
// Scalar settings can be overridden with DOCGRAPH_* environment variables.
package file
