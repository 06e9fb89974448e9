// Package finance is a double-entry personal finance computation engine.
//
// It models accounts, balanced transactions and derived balances; schedules
// recurring transactions; reconciles accounts against bank statements;
// amortizes loans and simulates rate scenarios; allocates budget envelopes;
// and forecasts balances from historical trends and scheduled cash flows.
//
// The package computes over an in-memory Snapshot and owns no storage or
// presentation: persistence, sync and rendering are collaborator concerns
// that call into the creation and query surface exposed here.
package finance
