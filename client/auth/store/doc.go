// Package store persists the credentials used by the authenticated client.
//
// A Store holds two named string slots, the access token and the refresh
// token. Reads never fail: a backend error is treated as an absent value.
// Writes never fail either: the value is always kept in memory for the
// lifetime of the process and the backend write is best effort, so a broken
// or full backend degrades the client to session-only behaviour instead of
// breaking the caller.
//
// Backends shipped with the package:
//
//   - NewMemoryBackend: process lifetime only
//   - NewFileBackend: one object per slot under any viant/afs URL (file://, mem://, ...)
//
// The sqlite and diskv sub-packages provide database and disk-cache backends.
package store
