// Package server implements the JSON-RPC transport of the device apps bridge.
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout (one per line)
//
// Supported methods:
//   - initialize: handshake, lists the bridge methods and their arguments
//   - ping: health check
//   - getInstalledApps, getAppByApkFiles: answered from the background worker
//   - getApp, isAppInstalled, openApp: answered inline
//   - listenAppChanges, cancelAppChanges: toggle onAppChanged notifications
//
// Background results may arrive out of request order; clients match them
// by id. A single goroutine writes to stdout, so responses and
// notifications never interleave.
//
// # Error Handling
//
// Bridge errors are returned as JSON-RPC error responses with:
//   - code: -32602 for invalid arguments, -32000 for every other bridge error
//   - message: the fixed bridge message, e.g. "Empty or null package name"
//   - data: the bridge error code ("ERROR", "NOT_READY" or "UNSUPPORTED")
//
// Unknown methods get code -32601 "not implemented".
package server
