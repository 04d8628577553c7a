/*
Package run implements run submission and persistence orchestration.

A Manager executes alignments under a run ID, persisting a "running" record
before the engine starts and the final record once it stops. Submissions that
share an ID are serialized locally and, with a DistributedLocker, across
replicas; a finished run is never executed twice.
*/
package run
