// Package httputil provides small helpers for JSON request decoding and
// response encoding shared by all HTTP handlers.
package httputil
