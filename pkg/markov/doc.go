/*
Package markov provides an in-memory, multi-order n-gram text model for Go.

A Model is configured once (order range, tokenizer pattern, stopwords) and
builds an immutable Index from a corpus of short text samples. The Index maps
every n-gram of every configured order to the multiset of tokens observed to
follow it, so frequent continuations are naturally more likely to be chosen.
A Generator performs weighted random walks over an Index using an injected
random source, which makes generation reproducible in tests, and the Index
itself answers deterministic frequency queries for reporting.

Indexes are never mutated after Build returns and are cheap to rebuild, so
concurrent callers should each build their own rather than share one.
*/
package markov
