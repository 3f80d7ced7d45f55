// Package pipeline turns a batch of discovered video files into catalog
// records. Each file passes through transcript preprocessing, ML description,
// and persistence; a failure in one file leaves the rest of the batch intact.
package pipeline
