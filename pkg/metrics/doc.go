/*
Package metrics provides Prometheus instrumentation for the transaction
commit core: the trans_commit_* counters named in the collaborator
contract, the commit-duration histogram, and gauges for write_count and
live reservation count.
*/
package metrics
