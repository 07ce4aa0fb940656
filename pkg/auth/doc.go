// Package auth identifies the principal behind a request.
//
// A [Guard] authenticates requests. [SessionGuard] reads the user ID from
// the request session and loads the principal through a [UserProvider].
// [BasicGuard] checks HTTP Basic credentials with a [CredentialVerifier]
// and is stateless, so unauthenticated requests get 401 with a
// WWW-Authenticate challenge instead of a login redirect.
//
// Principals carry their roles; route role requirements are checked with
// [Principal.HasRoles]. [CachedProvider] keeps loaded principals in a
// cache.Cache so the role lookup does not hit the user store per request.
package auth
