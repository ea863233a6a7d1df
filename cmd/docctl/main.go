// Command docctl is the operator CLI for the document search pipeline: it
// ingests single objects, runs searches, issues upload URLs, prepares the
// index and ledger, and replays failed ingest runs.
package main

func main() {
	Execute()
}
