// Package chunking splits document text into ordered chunk candidates.
//
// Two strategies are provided:
//   - FixedChunker: a sliding window of ChunkSize characters advancing by
//     ChunkSize - Overlap characters.
//   - ParagraphChunker: greedy accumulation of blank-line separated paragraphs
//     within an estimated token budget, carrying trailing paragraphs forward
//     as overlap. Paragraphs larger than the budget fall back to the fixed
//     window at ChunkSize*4 characters.
//
// Characters are Unicode code points. Chunkers are pure and safe for
// concurrent use; Chunks returns a lazy sequence that can be iterated any
// number of times with identical results.
//
// Both chunkers implement textsplitter.TextSplitter from langchaingo so they
// can be dropped into langchaingo document loaders.
package chunking
