// Package solr implements storage.DocumentStore against a Solr-compatible
// HTTP update API.
//
// Writes use commit=false so documents only become visible once Commit is
// called at the end of a run.
package solr
