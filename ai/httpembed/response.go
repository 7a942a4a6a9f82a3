package httpembed

import (
	"fmt"

	"github.com/poiesic/embedbench/core"
)

// envelopeKeys are checked in order when a response is an object.
var envelopeKeys = []string{"data", "embeddings", "embedding"}

// parseVectors normalizes a decoded JSON response into a list of vectors.
// A single bare vector yields a list of one.
func parseVectors(raw any) ([][]float32, error) {
	switch v := raw.(type) {
	case map[string]any:
		for _, key := range envelopeKeys {
			if inner, ok := v[key]; ok {
				return parseVectors(inner)
			}
		}
		return nil, fmt.Errorf("%w: object without data, embeddings or embedding", core.ErrUnrecognizedResponse)

	case []any:
		if len(v) == 0 {
			return [][]float32{}, nil
		}
		if _, ok := v[0].(float64); ok {
			vec, err := parseVector(v)
			if err != nil {
				return nil, err
			}
			return [][]float32{vec}, nil
		}
		vectors := make([][]float32, 0, len(v))
		for i, item := range v {
			vec, err := parseItem(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			vectors = append(vectors, vec)
		}
		return vectors, nil
	}
	return nil, fmt.Errorf("%w: unexpected %T", core.ErrUnrecognizedResponse, raw)
}

// parseItem decodes one element of a list of vectors: either a vector or
// an {"embedding": [...]} object.
func parseItem(item any) ([]float32, error) {
	switch v := item.(type) {
	case []any:
		return parseVector(v)
	case map[string]any:
		inner, ok := v["embedding"]
		if !ok {
			return nil, fmt.Errorf("%w: list item without embedding", core.ErrUnrecognizedResponse)
		}
		list, ok := inner.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: embedding is %T", core.ErrUnrecognizedResponse, inner)
		}
		return parseVector(list)
	}
	return nil, fmt.Errorf("%w: list item is %T", core.ErrUnrecognizedResponse, item)
}

func parseVector(list []any) ([]float32, error) {
	vec := make([]float32, len(list))
	for i, x := range list {
		f, ok := x.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: vector element %d is %T", core.ErrUnrecognizedResponse, i, x)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
