// Package image implements the image capture pipeline: it validates a
// picked file, keeps a revocable preview of it, encodes it for transfer and
// asks a text extractor for the text it contains.
package image
