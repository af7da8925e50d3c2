// Package render turns kinds and fragments into HTML and plain text bodies.
//
// Templates use Go template syntax. HTML templates are executed with
// html/template, so context values are escaped; plain templates use
// text/template and are not. Missing keys render as empty strings in both.
//
// The effective context of a render is a deep copy of the source defaults,
// the source's own fields under "meta", and then the caller overrides.
// Kinds also get their fragments, rendered with the kind's effective context,
// under "fragments":
//
//	<h1>Hola, {{.first_name}}</h1>
//	<img src="cid:logo">
//	{{.fragments.footer}}
//
// Image placeholders (src="cid:<placeholder>") are rewritten to the image's
// content id, or to its storage URL in test renders. A content id is assigned
// and persisted the first time an image is rendered outside test mode.
//
// Templates can use linebreaksbr, floatformat, date, localize_money and
// markdown:
//
//	Total: {{localize_money .amount}} ({{date .created "02/01/2006"}})
package render
