// Package bridge authenticates external point-of-sale sync clients with a
// per-organization API key instead of a login session.
//
// The key arrives in the X-Bridge-Key header. Looking up which organization
// owns the key is inherently cross-tenant - it happens before any tenant
// context exists - so the lookup runs inside isolation.Bypassed. Once the
// owner is known the middleware publishes an ordinary tenancy context and the
// rest of the request is row-isolated like any logged-in request.
package bridge
