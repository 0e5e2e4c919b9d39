// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

// Package embedding maps catalog metadata to fixed-length unit vectors and
// answers similarity queries over them.
//
// Vectors are derived from metadata tokens (genre:drama, creator:X, len:2,
// region:AU). Each token is hashed with SHA-256 and spread over Dim
// coordinates in [-1,1], then L2-normalized; an entity vector is the
// L2-normalized (optionally weighted) sum of its token vectors. Tokens are
// summed in sorted order, so identical token multisets give bit-identical
// vectors regardless of input order.
//
// Two SimilarityQuery implementations exist: Ephemeral computes vectors on
// demand, Stored reads precomputed vectors from a VectorStore and falls back
// to Ephemeral on a miss or store failure. Both use the same embedder, so
// their results are interchangeable.
package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Dim is the embedding dimension.
const Dim = 384

// Vector is an embedding. Stored and returned vectors are unit-norm or all zero.
type Vector []float64

// Features is the metadata an item contributes to its embedding.
type Features struct {
	ID            string
	Genres        []string
	Creators      []string
	EpisodeLength int // minutes; 0 means unknown and emits no len token
	Region        string
}

// Tokens returns the metadata tokens for f.
func (f Features) Tokens() []string {
	toks := make([]string, 0, len(f.Genres)+len(f.Creators)+2)
	for _, g := range f.Genres {
		toks = append(toks, "genre:"+g)
	}
	for _, c := range f.Creators {
		toks = append(toks, "creator:"+c)
	}
	if f.EpisodeLength > 0 {
		toks = append(toks, fmt.Sprintf("len:%d", LengthBucket(f.EpisodeLength)))
	}
	if r := strings.TrimSpace(f.Region); r != "" {
		toks = append(toks, "region:"+r)
	}
	return toks
}

// LengthBucket buckets an episode length: <=20 -> 0, <=35 -> 1, <=45 -> 2, else 3.
func LengthBucket(minutes int) int {
	switch {
	case minutes <= 20:
		return 0
	case minutes <= 35:
		return 1
	case minutes <= 45:
		return 2
	default:
		return 3
	}
}

// TokenVector returns the unit vector for one token.
func TokenVector(token string) Vector {
	digest := sha256.Sum256([]byte(token))
	v := make(Vector, Dim)
	for i := range v {
		v[i] = float64(digest[i%len(digest)])/255.0*2.0 - 1.0
	}
	return Normalize(v)
}

// Weighted is a token list contributing with a weight (a rated item).
type Weighted struct {
	Tokens []string
	Weight float64
}

type weightedToken struct {
	token  string
	weight float64
}

// Embed returns the normalized sum of the token vectors.
func Embed(tokens []string) Vector {
	return EmbedWeighted([]Weighted{{Tokens: tokens, Weight: 1}})
}

// EmbedWeighted returns the normalized weighted sum of token vectors.
func EmbedWeighted(groups []Weighted) Vector {
	out := make(Vector, Dim)
	for _, wt := range flatten(groups) {
		tv := TokenVector(wt.token)
		for i := range out {
			out[i] += wt.weight * tv[i]
		}
	}
	return Normalize(out)
}

// Fingerprint identifies the input of EmbedWeighted: equal fingerprints
// give bit-identical vectors.
func Fingerprint(groups []Weighted) string {
	var b strings.Builder
	for _, wt := range flatten(groups) {
		b.WriteString(wt.token)
		b.WriteByte(0)
		b.WriteString(strconv.FormatFloat(wt.weight, 'g', -1, 64))
		b.WriteByte('\n')
	}
	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

// flatten expands groups into weighted tokens in summation order. Zero
// weights contribute nothing and are dropped.
func flatten(groups []Weighted) []weightedToken {
	var flat []weightedToken
	for _, g := range groups {
		if g.Weight == 0 {
			continue
		}
		for _, t := range g.Tokens {
			flat = append(flat, weightedToken{token: t, weight: g.Weight})
		}
	}
	sort.Slice(flat, func(i, j int) bool {
		if flat[i].token != flat[j].token {
			return flat[i].token < flat[j].token
		}
		return flat[i].weight < flat[j].weight
	})
	return flat
}

// Normalize scales v to unit length in place and returns it. Zero vectors stay zero.
func Normalize(v Vector) Vector {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	n := math.Sqrt(sum)
	for i := range v {
		v[i] /= n
	}
	return v
}

// Cosine returns the cosine of the angle between a and b, clamped to [-1,1].
// Empty, mismatched or zero-norm inputs yield 0.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, c))
}

// Similarity rescales Cosine to [0,1] via (1+cos)/2.
func Similarity(a, b Vector) float64 {
	return (1 + Cosine(a, b)) / 2
}

// IsZero reports whether v carries no direction.
func IsZero(v Vector) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
