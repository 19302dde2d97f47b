// Package embedding maps free text to fixed-length float vectors via an
// external provider. The cache treats every provider failure (network
// error, bad status, timeout, rate limit) as "no embedding available";
// nothing here is fatal to the calling request.
package embedding
