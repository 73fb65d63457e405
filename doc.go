// Package accounts keeps user accounts consistent across two independent
// stores: a credential store (password verification, lockout state, failed
// attempt tracking) and a profile store (the business-facing account record
// with an active/blocked status).
//
// Account lifecycle:
//   - AccountService orchestrates registration, login, and the batch
//     administrative operations (block, unblock, delete). Registration uses
//     explicit compensation: a credential created without its profile is
//     deleted again, so no orphan credential survives a failed registration.
//   - Blocked is always the logical OR of the profile status and the
//     credential lockout state. Neither store is authoritative on its own.
//     Batch operations run best-effort and sequential: per-id failures are
//     logged and reported as a success count, never as an aborted batch.
//
// Request gating:
//   - AccessGate re-evaluates the blocked decision on every protected
//     request. A valid session token is not sufficient proof of continued
//     authorization once an administrator can flip status asynchronously;
//     blocked accounts are signed out, their session bag cleared, and the
//     request redirected.
//
// Stores are exposed as interfaces (CredentialStore, ProfileStore,
// SessionState) and ship with Bun-backed implementations plus a
// router.Context session adapter.
package accounts
