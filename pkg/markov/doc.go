/*
Package markov builds bigram transition tables from example token sequences
(typically note names such as "C4" or "F#4") and samples new sequences from them.

A Model is built once with Build and is read-only afterwards, so any number of
goroutines may sample from it. Each sampling run goes through a Sampler, which
owns its own random source; give every goroutine its own Sampler.

Training sequences may be wrapped with the StartToken and EndToken boundary
symbols so that generation has a well-defined entry point and stopping condition.
Boundary tokens never appear in generated output.
*/
package markov
