// Package session provides conversation history persistence for the
// assistant panel, stored in the transit SQLite database.
//
// A session represents one conversation between an operator and the
// assistant, containing ordered messages. The [Store] handles
// persistence while the chat agent handles conversation logic.
//
// Key operations:
//
//   - Session lifecycle: [Store.CreateSession], [Store.EnsureSession], [Store.Session], [Store.Sessions], [Store.DeleteSession]
//   - Message persistence: [Store.AddMessages], [Store.Messages] (transaction-safe batch insertion)
//   - Agent integration: [Store.History], [Store.AppendMessages]
//
// # Transaction Safety
//
// [Store.AddMessages] assigns sequence numbers and bumps the session's
// updated_at inside one transaction. The database layer opens SQLite
// with a single connection, so concurrent writers serialize there; if
// any step fails, the whole batch rolls back.
//
// # Concurrency
//
// Store is safe for concurrent use. All state lives in the database;
// no shared Go-side state exists.
package session
