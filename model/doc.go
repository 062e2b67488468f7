// Package model abstracts language-model endpoints behind a single Complete
// call: full conversation in, one assistant turn out, with zero or more
// structured tool-call requests alongside optional text. This is the only
// place the pipeline talks to a model provider.
package model
