// Package models defines the core domain models for the carpool ledger.
//
// # Models
//
//   - TripLeg: one directional trip (Ida or Vuelta) on a date, with a driver,
//     the riders billed for it and the fare frozen at creation.
//   - Roster: the fixed list of participants and drivers injected from config.
//
// Participants are identified by name strings; there are no user accounts.
//
// # Design Principles
//
//  1. Allocations and balances are derived, never stored: only TripLeg is persisted.
//  2. Each leg freezes its own fare so the default fare can change freely.
//  3. Dates are calendar dates (civil.Date) with no time component.
package models
