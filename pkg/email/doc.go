// Package email holds the domain model shared by the rendering, scheduling
// and delivery packages: kinds, fragments, images, entries and attachments,
// plus the params accepted when scheduling a new entry.
//
// A Kind is a template definition keyed by name and language. An Entry is one
// concrete email produced from a kind; it records its rendering context, its
// addressing and its delivery state (sent, spam, third-party rejection,
// soft-deleted).
package email
