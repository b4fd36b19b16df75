// Package clock abstracts time so that escalation timers and due dates can be
// driven deterministically in tests.
package clock
