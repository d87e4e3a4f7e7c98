// Package client contains the field tool's building blocks for talking to the
// annotation server and opening the local database.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the RemoteStore interface):
//     Ping, Upsert, UpdateOne, QueryByCity and DeleteAll, each scoped to an
//     explicit user id.
//  2. A concrete gRPC implementation (see GRPCClient) that manages a
//     connection, injects the access token via an interceptor, retries
//     conflicting upserts as inserts and maps gRPC status codes to sentinel
//     errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations),
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Transport failures match common.ErrNetwork (ErrUnavailable is one of them).
// Rejected credentials match ErrUnauthorized. A conflicting write that also
// fails as a plain insert is reported as common.ErrNetwork.
//
// Concurrency & Contexts
//
// GRPCClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and timeouts.
//
// See Also
//
//   - Interface:  RemoteStore
//   - gRPC impl:  GRPCClient
//   - DB helpers: InitDatabase, RunMigrations
//   - Errors:     ErrUnavailable, ErrUnauthorized
package client
