// Package models defines domain entities and persistence interfaces for the spm playlist manager.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing remote service data
//   - [Playlist] : Playlist metadata as returned by the remote gateway
//   - [Track] : Song metadata with artist and artwork references
//   - [User] : The authenticated user's profile
//   - [TrackList] : A cached track listing tagged with its fetch outcome
//   - [UndoEntry] : The recorded inverse of a completed membership mutation
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [CacheEntry] : Session-scoped cache rows (playlist list, per-playlist tracks)
//   - [HistoryEntry] : Completed operations recorded for the session history rail
//
// All persistent entities implement the Model interface providing ID generation, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
