/*
Package submission runs the submit, update and skip flows of a session.

Every bridge call made through the controller is wrapped in a duplicate-request guard: the
session's IsSubmitting flag is raised when the call starts and cleared once the call has settled
and a minimum hold has elapsed, or once a maximum hold has elapsed, whichever comes first. A
rejected call is reported through the notifier; a call still running at the ceiling has its
context cancelled.

The guard is advisory. Overlapping calls are not mutually excluded; the first release clears the
flag even if another call is still in flight.
*/
package submission
