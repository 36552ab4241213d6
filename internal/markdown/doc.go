// Package markdown renders rich-text attributes such as form descriptions
// into HTML with goldmark.
package markdown
