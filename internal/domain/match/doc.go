// Package match holds the pure scoring functions of the matching engine:
// vector similarity, lexical relevance, the five recommendation signals,
// weight vectors, dominant match type and human-readable explanations.
//
// Every scorer returns a value in [0, 1] except CosineSimilarity, whose raw
// range is [-1, 1]. Nothing here performs I/O.
package match
