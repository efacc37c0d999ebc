// Package api implements the HTTP surface: login, the caller's effective
// permissions, and role management on user accounts.
package api
