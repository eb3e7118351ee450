/*
Package session coordinates access to stored sessions.

A session is the run a user last submitted plus the playback cursor reviewing
it. The Manager serializes operations per session ID in-process and, when a
DistributedLocker is configured, across replicas sharing one store.
*/
package session
