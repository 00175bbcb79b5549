// Package recall stores notable agent episodes as vector-embedded
// memories and retrieves them by similarity.
//
// Episodes record outcomes worth remembering: a learner fit, a plugin
// load attempt, a maintenance update, a self-heal. Retrieval lets an
// operator (or a future planning layer) ask "what happened the last
// time X" without grepping logs.
//
// Architecture:
//   - Store: vector storage backend (chromem-go locally)
//   - Embedder: text-to-vector conversion (deterministic mock by
//     default, ONNX all-MiniLM-L6-v2 behind the onnx build tag)
//   - Manager: orchestrates embedding, recording, and recall, with a
//     ristretto cache memoizing embeddings
package recall
