// Package ai defines the embedding service abstraction used by the pipeline.
//
// # Implementation Packages
//
//   - ai/httpembed: client for text-embeddings inference endpoints that
//     accept {"inputs": ...} and answer in one of several response shapes
//   - ai/openai: OpenAI-compatible /v1/embeddings client via langchaingo
//   - ai/mock: test double with injectable behavior
//
// Public constructors return concrete types; callers depend on Embedder.
//
//	cfg := ai.NewConfig(ai.WithEmbeddingHost("http://localhost:8080/embed"), ai.WithBatchSize(16))
//	client, err := httpembed.NewClient(cfg)
//	vectors, err := client.EmbedTexts(ctx, chunks)
package ai
