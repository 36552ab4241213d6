// Package http exposes the localized collections and public forms over a
// net/http ServeMux.
//
// Routes mount under the configured base path (defaults to /api):
//   - Collections: /{collection}, /{collection}/{id}
//   - Forms: /forms/{slug}, /forms/{slug}/submit
//   - Submissions: /form-submissions/{id}/pdf
//
// Every route negotiates the request locale through locale.Middleware and
// authenticates bearer tokens into a permissions.Actor.
package http
