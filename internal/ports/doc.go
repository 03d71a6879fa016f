// Package ports defines the interfaces (ports) that connect the check-in
// workflow engine to infrastructure adapters.
//
// Ports are the boundaries between the application core and the outside
// world. They define what the engine needs from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [MessagingClient]: Sends, retracts, and extends interactive prompts
//   - [Directory]: Lists the messaging platform's member directory
//   - [DeliveryStore]: Holds per-recipient delivery records for a cycle
//   - [SecretStore]: Retrieves credentials at startup
//
// The core packages (roster, dispatch, interact, expiry, cycle) depend only
// on these interfaces. Infrastructure adapters (internal/adapters) implement
// them against the real platform. This separation enables testing the
// workflow logic with fakes and swapping infrastructure without touching
// business logic.
package ports
