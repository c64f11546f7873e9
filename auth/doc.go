// Package auth resolves who is using the catalog and what they may see.
//
// A Session holds the current bearer token and resolves it to an Identity
// through a JWTAuthenticator; parsed identities are cached per token until
// the token expires. CanView is the visibility gate each screen applies
// before rendering. It only reads the role; enforcement is the server's job.
package auth
