/*
Package saves orchestrates access to save slots.

It serializes concurrent operations on the same slot with reference-counted
in-process locks, optionally extends that to multi-host deployments through
a distributed locker, and papers over storage backends that cannot report
metadata without loading the payload.
*/
package saves
