// Package api provides the HTTP control API and WebSocket live feed for the
// health monitor client.
//
// It lets a headless deployment drive the broker session (connect,
// disconnect, discover), read and manage local data (history, settings,
// sensor cache, export and import), and stream session state and incoming
// health records to browsers.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
