// Package httpembed implements ai.Embedder for text-embeddings inference
// servers that accept {"inputs": text} or {"inputs": [texts...]}.
//
// Servers disagree on the response envelope, so responses are decoded
// generically and normalized: a bare vector, a list of vectors, objects
// keyed by "data", "embeddings" or "embedding", and lists of
// {"embedding": [...]} objects are all accepted.
package httpembed
