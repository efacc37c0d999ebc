// Package auth handles caller identity: issuing and verifying bearer tokens,
// verifying passwords, and carrying the authenticated identity through the
// request context. Authorization decisions live in package rbac; this
// package only establishes who is calling.
package auth
