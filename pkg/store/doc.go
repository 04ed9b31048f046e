/*
Package store keeps bigram melody models in a SQLite database.

Several named models share one vocabulary table. Training merges new
transition counts into a model inside a single transaction, so a model can be
trained incrementally from many files. Stored models are loaded back as
read-only markov.Model values for sampling, and can be exported to and
imported from JSON.

The package only depends on database/sql; callers choose the driver.
*/
package store
