// Package poller queries the dedicated-server availability API.
//
// This package is internal to sysmon. It issues one blocking HTTP request per
// check and decodes the regional availability listing returned upstream.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with optional timeout and size limits
//   - [Checker]: Builds availability URLs and matches datacenters
//   - [Region], [DatacenterAvailability]: The decoded response shape
//
// Users of sysmon should not need to interact with this package directly.
// The monitor in the root package depends only on the CheckAvailability
// method signature.
package poller
