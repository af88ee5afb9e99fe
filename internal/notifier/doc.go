// Package notifier announces newly discovered seminars.
//
// The scrape command passes in the events whose hash the store had never
// seen; a Notifier posts one short announcement per event. The Twitter
// implementation posts for real, and the dry-run implementation prints what
// would be posted so announcement output can be checked without credentials.
package notifier
