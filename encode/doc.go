// Package encode defines the text encoder contract used to turn queries and
// concept search text into fixed-dimension embedding vectors, plus the retry
// helper applied around encoder calls.
package encode
