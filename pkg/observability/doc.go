/*
Package observability turns engine lifecycle events into operational signals.

It ships a Prometheus hook sink that counts transitions, branches, stack
operations and persistence traffic, plus a hook combinator so metrics and
application hooks can observe the same engine without stepping on each other.
*/
package observability
