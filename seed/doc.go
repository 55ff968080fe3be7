// Package seed resets a content backend and fills it with fixture data.
//
// Categories are created first, in order, so posts can refer to them by
// title. Posts are then inserted concurrently through a worker pool. An
// insert failure does not stop the remaining inserts; all failures are
// returned together.
package seed
