/*
Package session implements session management and persistence orchestration.

A Manager serializes every operation on one session ID: load, step and save
happen under a per-session lock, optionally backed by a distributed lock so
several replicas can serve the same conversations.
*/
package session
