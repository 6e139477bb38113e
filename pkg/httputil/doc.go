// Package httputil provides HTTP plumbing for the Access Directory Service
// client.
//
// [Retry] re-attempts transient fetch failures - network errors, timeouts,
// and 5xx responses - with exponential backoff. Only errors wrapped in
// [RetryableError] are retried; a 403 from the directory is permanent and
// returned immediately so the caller can surface the access-denied state.
package httputil
