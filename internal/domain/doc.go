// Package domain contains the core entities and value objects for rollcall.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (HTTP, the messaging platform,
// logging) and contains only the check-in workflow's business rules.
//
// # Entities
//
//   - [Recipient]: One member of the check-in roster
//   - [DeliveryRecord]: Per-recipient state of a sent prompt, from dispatch
//     through to its resolution
//   - [Cycle]: One run of the check-in process across the full roster
//   - [CycleReport]: Outcome of a cycle's dispatch phase
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
