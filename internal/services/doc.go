// Package services implements the HTTP clients for the recipe & train backend.
//
// # APIService
//
// [APIService] is the shared transport. Each request:
//   - reads the bearer credential from a [CredentialStore] and fails with [shared.AuthenticationError] before any I/O when none is held
//   - waits on a [rate.Limiter] so bulk CLI operations stay polite
//   - carries an X-Request-Id for correlating client and server logs
//   - maps non-2xx responses to [shared.RemoteError], using the server's JSON "message" when present
//
// A 401 response is reported as an [shared.AuthenticationError] wrapping the [shared.RemoteError], so it satisfies both.
//
// # Collections
//
// [RecipeClient] and [TrainClient] implement [Collection], the remote half of a list view. Recipe writes are
// multipart forms with the ingredients list JSON-encoded in a single field and an optional image part;
// train writes are JSON. [NoteClient] and [AuthClient] cover recipe notes and sign-in.
//
// No call is retried.
package services
